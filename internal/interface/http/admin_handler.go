package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "usermanagement/internal/application"
	"usermanagement/pkg/response"
	"usermanagement/pkg/validation"
)

// AdminHandler serves the admin panel routes. All mutations sit behind the
// admin gate; the role check for login itself lives in the service.
type AdminHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *userapp.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type createUserRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        int64  `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required,pwd"`
	ProfileImage string `json:"profileImage"`
}

type blockUserRequest struct {
	IsBlocked *bool `json:"isBlocked" binding:"required"`
}

// Login POST /admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	admin, token, _, err := h.Svc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUnknownEmail):
			response.Error(c, http.StatusBadRequest, "User with this email does not exist")
		case errors.Is(err, userapp.ErrNotAdmin):
			response.Error(c, http.StatusBadRequest, "This user is not an admin")
		case errors.Is(err, userapp.ErrWrongPassword):
			response.Error(c, http.StatusBadRequest, "Incorrect password")
		default:
			h.serverError(c, "admin login failed", err)
		}
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"admin":   admin,
	})
}

// GetUsers GET /admin/getUsers
func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, "list users failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"users": users})
}

// CreateUser POST /admin/createUser
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "All fields are required", validation.ToDetails(err))
		return
	}
	_, err := h.Svc.CreateUser(c.Request.Context(), userapp.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrEmailExists) {
			response.Error(c, http.StatusBadRequest, "User already exists with this email")
			return
		}
		h.serverError(c, "create user failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "User created successfully"})
}

// UpdateUser PUT /admin/updateUser/:id
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateUser(c.Request.Context(), id, userapp.UpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		case errors.Is(err, userapp.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, "Email already exists")
		default:
			h.serverError(c, "update user failed", err)
		}
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    u,
	})
}

// BlockUser PATCH /admin/blockUser/:id
func (h *AdminHandler) BlockUser(c *gin.Context) {
	id := c.Param("id")
	var req blockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.SetBlocked(c.Request.Context(), id, *req.IsBlocked)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "block user failed", err)
		return
	}
	msg := "User unblocked successfully"
	if u.IsBlocked {
		msg = "User blocked successfully"
	}
	response.JSON(c, http.StatusOK, gin.H{"message": msg, "user": u})
}

// DeleteUser DELETE /admin/deleteUser/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "delete user failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// SearchUsers GET /admin/searchUsers?q=&size=
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "query parameter q is required")
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	users, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.serverError(c, "search users failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) serverError(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(msg)
	}
	response.Error(c, http.StatusInternalServerError, "Server error")
}
