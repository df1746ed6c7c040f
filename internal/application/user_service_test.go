package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usermanagement/internal/domain/entity"
	repo "usermanagement/internal/domain/repository"
	"usermanagement/pkg/helpers"
)

// memRepo is an in-memory UserRepository for exercising the service without
// postgres. It enforces the same email uniqueness the real store does.
type memRepo struct {
	mu   sync.Mutex
	byID map[string]*memRecord
}

type memRecord struct {
	user entity.User
	hash string
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]*memRecord)}
}

var _ repo.UserRepository = (*memRepo)(nil)

func (m *memRepo) Create(_ context.Context, u *entity.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.user.Email == u.Email {
			return repo.ErrEmailTaken
		}
	}
	u.ID = uuid.NewString()
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.byID[u.ID] = &memRecord{user: *u, hash: passwordHash}
	return nil
}

func (m *memRepo) GetCredentialByEmail(_ context.Context, email string) (*entity.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.user.Email == email {
			return &entity.Credential{User: r.user, PasswordHash: r.hash}, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u := r.user
	return &u, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.user.Email == email {
			u := r.user
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memRepo) ListByRole(_ context.Context, role entity.Role) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.User
	for _, r := range m.byID {
		if r.user.Role == role {
			u := r.user
			out = append(out, &u)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[u.ID]
	if !ok {
		return repo.ErrNotFound
	}
	for id, other := range m.byID {
		if id != u.ID && other.user.Email == u.Email {
			return repo.ErrEmailTaken
		}
	}
	u.UpdatedAt = time.Now()
	keep := r.user
	r.user = *u
	r.user.Role = keep.Role
	r.user.IsBlocked = keep.IsBlocked
	return nil
}

func (m *memRepo) SetBlocked(_ context.Context, id string, blocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	r.user.IsBlocked = blocked
	r.user.UpdatedAt = time.Now()
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// seed inserts an account directly, bypassing the service, so tests can set
// up admins and blocked users.
func (m *memRepo) seed(t *testing.T, u entity.User, password string) string {
	t.Helper()
	hash, err := helpers.HashPassword(password)
	require.NoError(t, err)
	cp := u
	require.NoError(t, m.Create(context.Background(), &cp, hash))
	return cp.ID
}

func newTestService() (*Service, *memRepo) {
	r := newMemRepo()
	tm := helpers.NewTokenManager("service-test-secret", 24*time.Hour, time.Hour)
	return NewService(r, tm, nil), r
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Phone: 555123, Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.False(t, u.IsBlocked)

	got, token, exp, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, string(entity.RoleUser), claims.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	in := RegisterInput{Name: "Alice", Email: "alice@example.com", Phone: 555123, Password: "secret1"}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	svc, _ := newTestService()
	in := RegisterInput{Name: "Alice", Email: "alice@example.com", Phone: 555123, Password: "secret1"}

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), in)
		}(i)
	}
	wg.Wait()

	// Exactly one registration wins; the store's uniqueness constraint
	// arbitrates, so every loser sees the same conflict error.
	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrEmailExists):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflict)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, _, _, err := svc.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUnknownEmail)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, r := newTestService()
	r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")

	_, _, _, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestLogin_BlockedAccount(t *testing.T) {
	svc, r := newTestService()
	r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser, IsBlocked: true}, "secret1")

	// Blocked wins even with correct credentials.
	_, _, _, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestAdminLogin_RejectsOrdinaryUser(t *testing.T) {
	svc, r := newTestService()
	r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")

	_, _, _, err := svc.AdminLogin(context.Background(), "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestAdminLogin_Succeeds(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Root", Email: "admin@example.com", Role: entity.RoleAdmin}, "secret1")

	u, token, _, err := svc.AdminLogin(context.Background(), "admin@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	claims, err := svc.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, string(entity.RoleAdmin), claims.Role)
}

func TestUpdateProfile_Partial(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Phone: 555123, Role: entity.RoleUser}, "secret1")

	u, err := svc.UpdateProfile(context.Background(), id, UpdateInput{Name: "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.Name)
	assert.Equal(t, "alice@example.com", u.Email, "untouched fields keep their values")
	assert.Equal(t, int64(555123), u.Phone)
}

func TestUpdateProfile_EmailCollision(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")
	r.seed(t, entity.User{Name: "Bob", Email: "bob@example.com", Role: entity.RoleUser}, "secret1")

	_, err := svc.UpdateProfile(context.Background(), id, UpdateInput{Email: "bob@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.UpdateProfile(context.Background(), uuid.NewString(), UpdateInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetProfile_HasNoPasswordHash(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")

	u, err := svc.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	// entity.User has no hash field at all, so the strongest check available
	// is that the projection round-trips without one.
	assert.Equal(t, id, u.ID)
}

func TestListUsers_ExcludesAdmins(t *testing.T) {
	svc, r := newTestService()
	r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")
	r.seed(t, entity.User{Name: "Bob", Email: "bob@example.com", Role: entity.RoleUser}, "secret1")
	r.seed(t, entity.User{Name: "Root", Email: "admin@example.com", Role: entity.RoleAdmin}, "secret1")

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.Equal(t, entity.RoleUser, u.Role)
	}
}

func TestSetBlocked_ThenLoginRefused(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")

	u, err := svc.SetBlocked(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, u.IsBlocked)

	_, _, _, err = svc.Login(context.Background(), "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrAccountBlocked)

	u, err = svc.SetBlocked(context.Background(), id, false)
	require.NoError(t, err)
	assert.False(t, u.IsBlocked)

	_, _, _, err = svc.Login(context.Background(), "alice@example.com", "secret1")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	svc, r := newTestService()
	id := r.seed(t, entity.User{Name: "Alice", Email: "alice@example.com", Role: entity.RoleUser}, "secret1")

	require.NoError(t, svc.DeleteUser(context.Background(), id))

	_, err := svc.GetProfile(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser_UnknownIDIsNotFound(t *testing.T) {
	svc, _ := newTestService()

	// Deleting a missing account reports not-found rather than success.
	err := svc.DeleteUser(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchUsers_WithoutESReturnsEmpty(t *testing.T) {
	svc, _ := newTestService()

	res, err := svc.SearchUsers(context.Background(), "alice", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}
