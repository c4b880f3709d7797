package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"chemxplore/internal/bootstrap"
	"chemxplore/internal/guard"
	"chemxplore/internal/pages"
	mysqlClient "chemxplore/internal/platform/mysql"
	rabbitmqClient "chemxplore/internal/platform/rabbitmq"
	redisClient "chemxplore/internal/platform/redis"
	"chemxplore/internal/transport/http/handler"
	"chemxplore/internal/transport/http/middleware"
)

// Handlers is everything the engine routes to.
type Handlers struct {
	Relay    *handler.RelayHandler
	Auth     *handler.AuthHandler
	Audit    *handler.AuditHandler
	Pages    *handler.PagesHandler
	Health   *handler.HealthHandler
	Sessions middleware.SessionResolver
	Cookie   middleware.CookieOptions
	Logger   *slog.Logger
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)

	cfg := app.Config
	cookie := middleware.CookieOptions{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	return NewEngine(Handlers{
		Relay: handler.NewRelayHandler(app.RelayService, app.Logger),
		Auth:  handler.NewAuthHandler(app.AuthService, app.Logger),
		Audit: handler.NewAuditHandler(app.AuthEvents, app.Logger),
		Pages: handler.NewPagesHandler(
			app.Renderer,
			app.Guard,
			app.AuthService,
			cookie,
			cfg.App.PublicURL,
			app.Logger,
		),
		Health: handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, map[string]handler.Check{
			"mysql": func(ctx context.Context) error { return mysqlClient.Ping(ctx, app.MySQL) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx, app.Redis) },
			"rabbitmq": func(context.Context) error {
				return rabbitmqClient.Ping(app.MQConn)
			},
		}),
		Sessions: app.AuthService,
		Cookie:   cookie,
		Logger:   app.Logger,
	})
}

func NewEngine(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(h.Logger), gin.Recovery())

	router.GET("/healthz", h.Health.Check)
	router.StaticFS(pages.StaticPath, pages.Static())

	relay := router.Group("/chemistry-chat", middleware.CORS())
	relay.POST("", h.Relay.Chat)
	relay.OPTIONS("", func(*gin.Context) {})

	authAPI := router.Group("/auth/v1")
	authAPI.POST("/signup", h.Auth.SignUp)
	authAPI.POST("/token", h.Auth.Token)
	authAPI.GET("/verify", h.Auth.Verify)
	authAPI.GET("/user", middleware.BearerAuth(h.Sessions), h.Auth.User)
	authAPI.POST("/logout", middleware.BearerAuth(h.Sessions), h.Auth.Logout)
	authAPI.GET("/user/events", middleware.BearerAuth(h.Sessions), h.Audit.Events)

	site := router.Group("", middleware.SessionCookie(h.Sessions, h.Cookie, h.Logger))
	site.GET(guard.LoginRoute, h.Pages.Show)
	site.POST(guard.LoginRoute, h.Pages.SubmitAuth)
	site.POST("/logout", h.Pages.Logout)
	for _, route := range pages.Routes() {
		site.GET(route, h.Pages.Show)
	}
	router.NoRoute(h.Pages.NotFound)

	return router
}
