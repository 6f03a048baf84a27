package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/abjin/reward-closet/internal/session"
)

const authBurst = 5

// Handlers groups the endpoint handlers mounted by NewRouter. A nil Upload
// leaves /api/uploads unmounted.
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Donation  *DonationHandler
	Predict   *PredictHandler
	Upload    *UploadHandler
	Verifier  session.Verifier
	Recorder  RequestRecorder
	Metrics   http.Handler
	Readiness func() error
}

// RouterConfig holds the HTTP-level settings of NewRouter.
type RouterConfig struct {
	// AllowOrigin is the browser origin allowed to send credentialed requests.
	AllowOrigin string
	// AuthRateLimit is the per-client request rate on /api/auth. Zero disables it.
	AuthRateLimit float64
	// WebDir, when set, is served as a single-page application.
	WebDir string
}

// NewRouter builds the echo instance with all routes and middleware.
func NewRouter(h Handlers, cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewAppValidator()
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(h.Recorder))
	e.Use(middleware.Recover())
	if cfg.AllowOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{cfg.AllowOrigin},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderContentType},
			AllowCredentials: true,
		}))
	}
	e.Use(SessionAuth(h.Verifier))
	e.Use(PageGuard())

	e.GET("/health", func(c echo.Context) error {
		if h.Readiness != nil {
			if err := h.Readiness(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	// Middleware is attached per route: group-level middleware would also
	// wrap the group's catch-all 404 and turn unknown paths into 401 or 429.
	var authLimit []echo.MiddlewareFunc
	if cfg.AuthRateLimit > 0 {
		authLimit = append(authLimit, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.AuthRateLimit),
				Burst:     authBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}

	api := e.Group("/api")
	if h.Auth.PasswordEnabled() {
		api.POST("/auth/signup", h.Auth.Signup, authLimit...)
		api.POST("/auth/login", h.Auth.Login, authLimit...)
	}
	if h.Auth.ExchangeEnabled() {
		api.POST("/auth/session", h.Auth.Session, authLimit...)
	}
	api.POST("/auth/logout", h.Auth.Logout, authLimit...)

	api.POST("/predict", h.Predict.Predict)

	api.GET("/user", h.User.Get, RequireSession)
	api.PUT("/user", h.User.Update, RequireSession)
	api.POST("/donations", h.Donation.Create, RequireSession)
	api.GET("/donations", h.Donation.List, RequireSession)
	if h.Upload != nil {
		api.POST("/uploads", h.Upload.Upload, RequireSession, middleware.BodyLimit("11M"))
		api.DELETE("/uploads", h.Upload.Delete, RequireSession)
	}

	if cfg.WebDir != "" {
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  cfg.WebDir,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				p := c.Request().URL.Path
				return strings.HasPrefix(p, "/api/") || p == "/health" || p == "/metrics"
			},
		}))
	}

	return e
}
