package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "usermanagement/internal/application"
	"usermanagement/internal/interface/middleware"
	"usermanagement/pkg/response"
	"usermanagement/pkg/validation"
)

// UserHandler serves the self-service account routes.
type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    int64  `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,pwd"`
	Image    string `json:"image"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        int64  `json:"phone"`
	ProfileImage string `json:"profileImage"`
}

// Register POST /users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	_, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ProfileImage: req.Image,
	})
	if err != nil {
		if errors.Is(err, userapp.ErrEmailExists) {
			response.Error(c, http.StatusBadRequest, "User already exists with this email")
			return
		}
		h.serverError(c, "registration failed", err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"success": true,
	})
}

// Login POST /users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, token, _, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUnknownEmail):
			response.Error(c, http.StatusBadRequest, "User with this email does not exist")
		case errors.Is(err, userapp.ErrAccountBlocked):
			response.Error(c, http.StatusForbidden, "Your account has been blocked. Please contact support.")
		case errors.Is(err, userapp.ErrWrongPassword):
			response.Error(c, http.StatusBadRequest, "Incorrect password")
		default:
			h.serverError(c, "login failed", err)
		}
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    u,
	})
}

// GetProfile GET /users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Unauthorized access")
		return
	}
	u, err := h.Svc.GetProfile(c.Request.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "get profile failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user": u})
}

// UpdateProfile PATCH /users/updateProfile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Unauthorized access")
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), ident.UserID, userapp.UpdateInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrEmailExists):
			response.Error(c, http.StatusBadRequest, "Email already exists")
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		default:
			h.serverError(c, "update profile failed", err)
		}
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    u,
	})
}

// UploadImage POST /users/uploadImage (multipart field "image")
func (h *UserHandler) UploadImage(c *gin.Context) {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Unauthorized access")
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "image file is required")
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.Svc.UploadProfileImage(c.Request.Context(), ident.UserID, file,
		header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "image upload failed", err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"message": "Image uploaded successfully",
		"url":     url,
	})
}

func (h *UserHandler) serverError(c *gin.Context, msg string, err error) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error(msg)
	}
	response.Error(c, http.StatusInternalServerError, "Server error")
}
