package modules

import (
	"github.com/gin-gonic/gin"

	handlers "usermanagement/internal/interface/http"
	"usermanagement/internal/interface/middleware"
	"usermanagement/pkg/helpers"
)

// AdminModule wires the admin panel routes. Only /admin/login is public;
// every other /admin route, createUser included, sits behind the admin gate.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Tokens  *helpers.TokenManager
}

func NewAdminModule(h *handlers.AdminHandler, tm *helpers.TokenManager) *AdminModule {
	return &AdminModule{Handler: h, Tokens: tm}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")

	admin.POST("/login", m.Handler.Login)

	gated := admin.Group("")
	gated.Use(middleware.RequireAdmin(m.Tokens))
	{
		gated.GET("/getUsers", m.Handler.GetUsers)
		gated.GET("/searchUsers", m.Handler.SearchUsers)
		gated.POST("/createUser", m.Handler.CreateUser)
		gated.PUT("/updateUser/:id", m.Handler.UpdateUser)
		gated.PATCH("/blockUser/:id", m.Handler.BlockUser)
		gated.DELETE("/deleteUser/:id", m.Handler.DeleteUser)
	}
}
