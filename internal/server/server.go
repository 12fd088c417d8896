package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/shinyyama/centace-backend/internal/config"
	"github.com/shinyyama/centace-backend/internal/email"
	"github.com/shinyyama/centace-backend/internal/feed"
	"github.com/shinyyama/centace-backend/internal/handler"
	"github.com/shinyyama/centace-backend/internal/live"
	appmw "github.com/shinyyama/centace-backend/internal/middleware"
	"github.com/shinyyama/centace-backend/internal/repository"
	"github.com/shinyyama/centace-backend/internal/service"
)

// Deps are the collaborators built outside the server. A nil Auth leaves
// user routes unauthenticated (they answer 401) and skips the admin group.
type Deps struct {
	Broker    feed.Broker
	Transport email.Transport
	Auth      *appmw.AuthMiddleware
}

type Server struct {
	e             *echo.Echo
	notifications service.NotificationService
	profiles      service.ProfileService

	notificationRepo repository.NotificationRepository
	preferenceRepo   repository.PreferenceRepository
	profileRepo      repository.ProfileRepository
	investmentRepo   repository.InvestmentRepository
	siteVisitRepo    repository.SiteVisitRepository
}

func New(cfg *config.Config, db *gorm.DB, deps Deps) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	allowOrigin := originPolicy(cfg.AllowedOrigins)
	e.Use(middleware.Recover())
	e.Use(appmw.RequestContext)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", appmw.HeaderRequestID},
		ExposeHeaders:    []string{appmw.HeaderRequestID},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			return allowOrigin(origin), nil
		},
	}))

	s := &Server{
		e:                e,
		notificationRepo: repository.NewNotificationRepository(db),
		preferenceRepo:   repository.NewPreferenceRepository(db),
		profileRepo:      repository.NewProfileRepository(db),
		investmentRepo:   repository.NewInvestmentRepository(db),
		siteVisitRepo:    repository.NewSiteVisitRepository(db),
	}

	renderer, err := email.NewRenderer(cfg.AppBaseURL)
	if err != nil {
		return nil, err
	}
	dispatcher := email.NewDispatcher(s.profileRepo, s.preferenceRepo, renderer, deps.Transport)
	s.notifications = service.NewNotificationService(s.notificationRepo, deps.Broker, dispatcher, service.NotificationConfig{
		EmailTimeout: cfg.EmailDispatchTimeout,
		Live:         live.Config{ConnectTimeout: cfg.LiveConnectTimeout},
	})
	s.profiles = service.NewProfileService(s.profileRepo, s.notifications)
	preferences := service.NewPreferenceService(s.preferenceRepo)
	investments := service.NewInvestmentService(s.investmentRepo, s.notifications)
	bookings := service.NewBookingService(s.siteVisitRepo, s.notifications)
	announcements := service.NewAnnouncementService(s.profileRepo, s.notifications)

	notificationHandler := handler.NewNotificationHandler(s.notifications, allowOrigin)
	preferenceHandler := handler.NewPreferenceHandler(preferences)
	profileHandler := handler.NewProfileHandler(s.profiles)
	investmentHandler := handler.NewInvestmentHandler(investments)
	siteVisitHandler := handler.NewSiteVisitHandler(bookings)
	adminHandler := handler.NewAdminHandler(announcements, s.notifications)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    cfg.GitSHA,
			"build_time": cfg.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var authed, wsAuth []echo.MiddlewareFunc
	if deps.Auth != nil {
		deps.Auth.WithAdmins(cfg.AdminUIDs, s.profiles)
		authed = []echo.MiddlewareFunc{deps.Auth.RequireAuth}
		// browsers cannot set headers on the websocket handshake
		wsAuth = []echo.MiddlewareFunc{deps.Auth.RequireAuthQuery}
	}

	api := e.Group("/api")
	api.GET("/notifications", notificationHandler.List, authed...)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead, authed...)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead, authed...)
	api.DELETE("/notifications/:id", notificationHandler.Delete, authed...)
	api.GET("/notifications/ws", notificationHandler.Live, wsAuth...)
	api.GET("/me/email-preferences", preferenceHandler.Get, authed...)
	api.PUT("/me/email-preferences", preferenceHandler.Update, authed...)
	api.GET("/me/profile", profileHandler.Get, authed...)
	api.PUT("/me/profile", profileHandler.Update, authed...)
	api.POST("/investments", investmentHandler.Create, authed...)
	api.GET("/me/investments", investmentHandler.ListMine, authed...)
	api.POST("/site-visits", siteVisitHandler.Create, authed...)
	api.GET("/me/site-visits", siteVisitHandler.ListMine, authed...)
	api.POST("/site-visits/:id/cancel", siteVisitHandler.Cancel, authed...)

	if deps.Auth != nil {
		admin := api.Group("/admin", deps.Auth.RequireAuth, deps.Auth.RequireAdmin)
		admin.POST("/site-visits/:id/confirm", siteVisitHandler.Confirm)
		admin.POST("/announcements", adminHandler.Announce)
		admin.POST("/notifications", adminHandler.CreateNotification)
	}

	return s, nil
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Handler() http.Handler {
	return s.e
}

// Shutdown stops accepting requests, then waits for in-flight email dispatches.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.e.Shutdown(ctx)
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) SetDB(db *gorm.DB) {
	s.notificationRepo.SetDB(db)
	s.preferenceRepo.SetDB(db)
	s.profileRepo.SetDB(db)
	s.investmentRepo.SetDB(db)
	s.siteVisitRepo.SetDB(db)
}

// originPolicy allows local development hosts plus the configured origins.
// "*" in allowed accepts everything.
func originPolicy(allowed []string) func(origin string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(origin string) bool {
		low := strings.ToLower(origin)
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[low]; ok {
			return true
		}
		u, err := url.Parse(low)
		if err != nil {
			return false
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false
		}
		host := u.Hostname()
		return host == "localhost" || host == "127.0.0.1"
	}
}
