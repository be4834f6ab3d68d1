package api

import (
	"github.com/gin-contrib/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"

	"eventsales/cmd/middleware"
	"eventsales/internal/service"
	"eventsales/internal/session"
)

type Routers struct {
	Service  service.Service
	Sessions *session.Store
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	apiGroup := app.Group("/api")
	apiGroup.POST("/login", r.Service.Login)
	apiGroup.POST("/logout", r.Service.Logout)

	authed := apiGroup.Group("", session.Middleware(r.Sessions))
	authed.GET("/events", r.Service.GetEvents)
	authed.POST("/register", r.Service.Register)
	authed.GET("/sales", r.Service.GetSales)
	authed.PUT("/sales/:id", r.Service.UpdateSale)
	authed.DELETE("/sales/:id", r.Service.DeleteSale)

	admin := authed.Group("", session.RequireAdmin())
	admin.POST("/events", r.Service.CreateEvent)
	admin.PUT("/events/:id", r.Service.UpdateEvent)
	admin.DELETE("/events/:id", r.Service.DeleteEvent)
	admin.GET("/members", r.Service.ListMembers)
	admin.POST("/members", r.Service.CreateMember)
	admin.PUT("/members/:id", r.Service.UpdateMember)
	admin.DELETE("/members/:id", r.Service.DeleteMember)
	admin.GET("/students", r.Service.ListStudents)
	admin.PUT("/students/:id", r.Service.UpdateStudent)

	app.GET("/metrics", func(c *ginext.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})

	app.GET("/", func(c *ginext.Context) {
		c.File("./frontend/index.html")
	})
	app.Static("/frontend", "./frontend")

	return app
}
