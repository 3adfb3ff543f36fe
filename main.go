package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"logsight/internal/config"
	"logsight/internal/db"
	"logsight/internal/http/handlers"
	appmw "logsight/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.EnsureBootstrapUser(sqlDB, cfg); err != nil {
		log.Fatalf("failed to ensure bootstrap user: %v", err)
	}

	defaultOwnerID, err := db.EnsureDefaultOwner(sqlDB, cfg)
	if err != nil {
		log.Fatalf("failed to ensure default owner: %v", err)
	}
	if defaultOwnerID != "" {
		log.Printf("default owner policy enabled: events without userId go to %s", cfg.DefaultOwnerEmail)
	}

	if err := db.DeleteExpiredSessions(sqlDB); err != nil {
		log.Printf("warning: failed to purge expired sessions: %v", err)
	}

	handlers.InitPrometheusMetrics()

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})
	r.GET("/metrics", handlers.PrometheusHandler())

	r.GET("/login", appmw.RedirectIfAuthenticated(sqlDB, "/events")(handlers.LoginInfo()))
	r.POST("/login", handlers.Login(sqlDB, cfg))
	r.POST("/logout", appmw.OptionalSession(sqlDB)(handlers.Logout(sqlDB)))

	r.POST("/events", handlers.IngestEvent(sqlDB, cfg, defaultOwnerID))
	r.GET("/events", handlers.ListPublicEvents(sqlDB, cfg))
	r.GET("/events/mine", appmw.SessionAuth(sqlDB)(handlers.ListMyEvents(sqlDB, cfg)))
	r.GET("/events/{id}", appmw.SessionAuth(sqlDB)(handlers.EventByID(sqlDB, cfg)))
	r.DELETE("/events/{id}", appmw.OptionalSession(sqlDB)(handlers.DeleteEvent(sqlDB, cfg)))
	r.DELETE("/events", appmw.SessionAuth(sqlDB)(handlers.ClearAllEvents(sqlDB, cfg)))

	// Global middleware chain: request logger, then CORS, then router.
	handler := handlers.RequestLogger(appmw.CORS(r.Handler))

	log.Printf("logsight listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
