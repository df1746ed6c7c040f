package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"usermanagement/internal/domain/entity"
	repo "usermanagement/internal/domain/repository"
	"usermanagement/pkg/helpers"
	"usermanagement/pkg/mailer"
)

var (
	ErrEmailExists    = errors.New("user already exists with this email")
	ErrUnknownEmail   = errors.New("user with this email does not exist")
	ErrWrongPassword  = errors.New("incorrect password")
	ErrAccountBlocked = errors.New("account has been blocked")
	ErrNotAdmin       = errors.New("this user is not an admin")
	ErrUserNotFound   = errors.New("user not found")
)

const profileCacheTTL = 15 * time.Minute

// Service implements the account operations behind the user and admin
// handlers. Redis, ES, GCS, and the Rabbit publisher are optional; a nil
// collaborator disables that side channel without affecting the core paths.
type Service struct {
	Repo         repo.UserRepository
	Tokens       *helpers.TokenManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
	GCS          *storage.Client
	GCSBucket    string
	Pub          *helpers.RabbitPublisher
	MailEnabled  bool
}

func NewService(r repo.UserRepository, tokens *helpers.TokenManager, logger *logrus.Logger) *Service {
	return &Service{Repo: r, Tokens: tokens, Logger: logger}
}

func profileKey(userID string) string {
	return "user:profile:" + userID
}

type RegisterInput struct {
	Name         string
	Email        string
	Phone        int64
	Password     string
	ProfileImage string
}

type UpdateInput struct {
	Name         string
	Email        string
	Phone        int64
	ProfileImage string
}

// Register creates a user account and queues a welcome email. The role is
// always RoleUser; there is no registration path to an admin account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	u, err := s.createAccount(ctx, in)
	if err != nil {
		return nil, err
	}
	s.publishEmail(ctx, mailer.EmailJob{To: u.Email, Kind: mailer.KindWelcome, Name: u.Name})
	return u, nil
}

// CreateUser is the admin-create path: same invariants as Register, no
// welcome email.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput) (*entity.User, error) {
	return s.createAccount(ctx, in)
}

func (s *Service) createAccount(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		ProfileImage: in.ProfileImage,
		Role:         entity.RoleUser,
	}
	// The unique constraint on email is the arbiter for duplicates; a
	// pre-check here would leave a race window between check and insert.
	if err := s.Repo.Create(ctx, u, hash); err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	s.indexUser(ctx, u)
	return u, nil
}

// Login verifies credentials and issues a bearer token. A blocked account is
// refused before the password is checked, so blocking takes effect even for
// callers holding correct credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	cred, err := s.Repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", time.Time{}, ErrUnknownEmail
		}
		return nil, "", time.Time{}, err
	}
	if cred.IsBlocked {
		return nil, "", time.Time{}, ErrAccountBlocked
	}
	if !helpers.CheckPassword(cred.PasswordHash, password) {
		return nil, "", time.Time{}, ErrWrongPassword
	}
	token, exp, err := s.Tokens.Issue(cred.ID, cred.Role)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": cred.ID, "role": cred.Role}).Info("login")
	}
	u := cred.User
	return &u, token, exp, nil
}

// AdminLogin gates the login action itself on the admin role, before any
// token exists. This is a business rule distinct from the admin middleware.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	cred, err := s.Repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", time.Time{}, ErrUnknownEmail
		}
		return nil, "", time.Time{}, err
	}
	if cred.Role != entity.RoleAdmin {
		return nil, "", time.Time{}, ErrNotAdmin
	}
	if !helpers.CheckPassword(cred.PasswordHash, password) {
		return nil, "", time.Time{}, ErrWrongPassword
	}
	token, exp, err := s.Tokens.Issue(cred.ID, cred.Role)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	if s.Logger != nil {
		s.Logger.WithField("admin_id", cred.ID).Info("admin login")
	}
	u := cred.User
	return &u, token, exp, nil
}

// GetProfile reads a user through the redis cache when one is configured.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if s.Redis != nil {
		var cached entity.User
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.cacheProfile(ctx, u)
	return u, nil
}

// UpdateProfile applies a partial update to name/email/phone/image. Role and
// password are untouchable through this path.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	applyUpdate(u, in)
	if err := s.Repo.Update(ctx, u); err != nil {
		switch {
		case errors.Is(err, repo.ErrEmailTaken):
			return nil, ErrEmailExists
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidateProfile(ctx, u.ID)
	s.indexUser(ctx, u)
	return u, nil
}

// UpdateUser is the admin variant of UpdateProfile, addressing any account.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateInput) (*entity.User, error) {
	return s.UpdateProfile(ctx, id, in)
}

func applyUpdate(u *entity.User, in UpdateInput) {
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Phone != 0 {
		u.Phone = in.Phone
	}
	if in.ProfileImage != "" {
		u.ProfileImage = in.ProfileImage
	}
}

// UploadProfileImage stores the image in GCS and points the profile at it.
func (s *Service) UploadProfileImage(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("image storage not configured")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("profiles", userID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	u.ProfileImage = url
	if err := s.Repo.Update(ctx, u); err != nil {
		return "", err
	}
	s.invalidateProfile(ctx, u.ID)
	s.indexUser(ctx, u)
	return url, nil
}

// ListUsers returns every ordinary account; admin accounts never show up in
// the admin panel listing.
func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.ListByRole(ctx, entity.RoleUser)
}

// SetBlocked flips the blocked flag. Blocking invalidates the cached profile
// immediately and notifies the account by email.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (*entity.User, error) {
	if err := s.Repo.SetBlocked(ctx, id, blocked); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.invalidateProfile(ctx, id)
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.indexUser(ctx, u)
	if blocked {
		s.publishEmail(ctx, mailer.EmailJob{To: u.Email, Kind: mailer.KindAccountBlocked, Name: u.Name})
	}
	return u, nil
}

// DeleteUser permanently removes an account. There is no soft delete.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidateProfile(ctx, id)
	s.deleteFromIndex(ctx, id)
	return nil
}

// SearchUsers runs a multi_match query over name and email, restricted to
// ordinary accounts. Returns empty results when ES is not configured.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  q,
						"fields": []string{"email^2", "name"},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"role": string(entity.RoleUser)},
				},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *Service) cacheProfile(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, profileKey(u.ID), u, profileCacheTTL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("profile cache write failed")
	}
}

func (s *Service) invalidateProfile(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, profileKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("profile cache invalidation failed")
	}
}

func (s *Service) publishEmail(ctx context.Context, job mailer.EmailJob) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.Pub.PublishJSON(c, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("to", job.To).Warn("email job publish failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"phone":         u.Phone,
		"profile_image": u.ProfileImage,
		"role":          u.Role,
		"is_blocked":    u.IsBlocked,
		"created_at":    u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *Service) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}
