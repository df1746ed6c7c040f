package modules

import (
	"github.com/gin-gonic/gin"

	handlers "usermanagement/internal/interface/http"
	"usermanagement/internal/interface/middleware"
	"usermanagement/pkg/helpers"
)

// UserModule wires the self-service routes.
// Public: POST /users/register, POST /users/login
// Protected (any authenticated user): GET /users/profile,
// PATCH /users/updateProfile, POST /users/uploadImage
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  *helpers.TokenManager
}

func NewUserModule(h *handlers.UserHandler, tm *helpers.TokenManager) *UserModule {
	return &UserModule{Handler: h, Tokens: tm}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	users.POST("/register", m.Handler.Register)
	users.POST("/login", m.Handler.Login)

	auth := users.Group("")
	auth.Use(middleware.RequireAuth(m.Tokens))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PATCH("/updateProfile", m.Handler.UpdateProfile)
		auth.POST("/uploadImage", m.Handler.UploadImage)
	}
}
