// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/handler"
	"github.com/iliyamo/orvella-storefront/internal/middleware"
	"github.com/iliyamo/orvella-storefront/internal/model"
)

// Handlers groups everything the routes need.
type Handlers struct {
	Auth          *handler.AuthHandler
	Orders        *handler.OrderHandler
	Products      *handler.ProductHandler
	Users         *handler.UserHandler
	Notifications *handler.NotificationHandler
	Health        echo.HandlerFunc
}

// Middleware holds the cross-cutting pieces applied per route group.
type Middleware struct {
	Session   echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func (m Middleware) withDefaults() Middleware {
	if m.RateLimit == nil {
		m.RateLimit = passthrough
	}
	if m.Cache == nil {
		m.Cache = passthrough
	}
	return m
}

// Register mounts every route.  Public catalog reads go through the
// response cache; everything under /api/v1 is rate limited.
func Register(e *echo.Echo, h Handlers, m Middleware) {
	m = m.withDefaults()
	if h.Health != nil {
		e.GET("/healthz", h.Health)
	}

	api := e.Group("/api/v1", m.RateLimit)

	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.GET("/logout", h.Auth.Logout)
	api.GET("/products", h.Products.List, m.Cache)
	api.GET("/product/:id", h.Products.Get, m.Cache)

	session := api.Group("", m.Session)
	session.GET("/me", h.Auth.Me)
	session.POST("/order/new", h.Orders.Create)
	session.GET("/order/:id", h.Orders.Get)
	session.GET("/orders/me", h.Orders.Mine)

	admin := api.Group("/admin", m.Session, middleware.RequireRole(model.RoleAdmin))
	admin.POST("/product/new", h.Products.Create)
	admin.PUT("/product/:id", h.Products.Update)
	admin.GET("/orders", h.Orders.List)
	admin.PUT("/order/:id", h.Orders.UpdateStatus)
	admin.DELETE("/order/:id", h.Orders.Delete)
	admin.GET("/users", h.Users.List)
	admin.PUT("/user/:id", h.Users.UpdateRole)
	admin.GET("/notifications", h.Notifications.Recent)
	admin.GET("/notifications/ws", h.Notifications.Stream)
}
