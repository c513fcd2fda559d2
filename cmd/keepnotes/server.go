package main

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/oliverisaac/keepnotes/lib/notes"
	"github.com/oliverisaac/keepnotes/static"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const SessionKey = "session"
const UserKey = "session-user"
const SessionUserIDKey = "userid"

// metrics is where the HTTP collectors register and what /metrics serves.
type metrics struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func render(ctx echo.Context, status int, t templ.Component) error {
	ctx.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	ctx.Response().WriteHeader(status)

	err := t.Render(ctx.Request().Context(), ctx.Response().Writer)
	if err != nil {
		return ctx.String(http.StatusInternalServerError, "failed to render response template")
	}

	return nil
}

type requestValidator struct {
	validate *validator.Validate
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

func newServer(cfg types.Config, db *gorm.DB, svc *notes.Service, m metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New(validator.WithRequiredStructEnabled())}

	e.StaticFS("/static", static.FS)

	origErrHandler := e.HTTPErrorHandler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		logrus.Error(err)
		origErrHandler(err, c)
	}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		Skipper:           middleware.DefaultSkipper,
		StackSize:         4 << 10, // 4 KB
		DisableStackAll:   false,
		DisablePrintStack: false,
		LogLevel:          log.ERROR,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logrus.Error(errors.Wrap(err, "recovered panic:"))
			for _, l := range strings.Split(string(stack), "\n") {
				logrus.Errorf("stack: %s", strings.ReplaceAll(l, "\t", "  "))
			}
			return nil
		},
		DisableErrorHandler: false,
	}))

	e.Use(middleware.Secure())

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/metrics"
		},
	}))

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "keepnotes",
		Registerer: m.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	store := sessions.NewCookieStore(cfg.CookieSecret)
	e.Use(session.Middleware(store))
	e.Use(UserMiddleware(db))

	limit := rateLimiter(cfg)

	// Pages
	e.GET("/", homePageHandler(cfg, svc))
	e.GET("/bin", binPageHandler(cfg, svc))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.Gatherer}))

	// Auth
	auth := e.Group("/auth", limit)
	auth.GET("/sign-in", signIn(cfg))
	auth.POST("/sign-in", signInWithEmailAndPassword(db, cfg))
	if cfg.AllowSignup || len(cfg.AllowSignupEmails) > 0 {
		auth.GET("/sign-up", signUp(cfg))
		auth.POST("/sign-up", signUpWithEmailAndPassword(db, cfg))
	}
	auth.POST("/sign-out", signOut())
	e.DELETE("/user", deleteAccount(db, svc), limit)

	// Notes API
	api := e.Group("/notes", limit)
	api.POST("", createNote(svc))
	api.GET("", listNotes(svc))
	api.GET("/bin", listBin(svc))
	api.POST("/bin/restore", restoreBin(svc))
	api.DELETE("/bin", emptyBin(svc))
	api.POST("/bin/empty", emptyBin(svc))
	api.POST("/batch", batchNotes(svc))
	api.GET("/:id", getNote(svc))
	api.PUT("/:id", updateNote(svc))
	api.DELETE("/:id", deleteNote(svc))
	api.POST("/:id/favorite", toggleFavorite(svc))
	api.POST("/:id/actions/:action", noteAction(svc))

	return e
}

// rateLimiter limits per client IP. A non-positive rate turns it off.
func rateLimiter(cfg types.Config) echo.MiddlewareFunc {
	if cfg.RateLimitRPS <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RateLimitRPS),
			Burst:     cfg.RateLimitBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, errorBody{Error: "Too many requests"})
		},
	})
}

func UserMiddleware(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := session.Get(SessionKey, c)
			if sess != nil && sess.Values[SessionUserIDKey] != nil {
				userID, _ := sess.Values[SessionUserIDKey].(uint)
				user, err := getUserByID(db, userID)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// the account is gone; treat the request as anonymous
					logrus.Debugf("Session references missing user %d", userID)
					return next(c)
				}
				if err != nil {
					return errors.Wrap(err, "getting user by id")
				}
				c.Set(UserKey, user)
			}
			return next(c)
		}
	}
}

func GetSessionUser(c echo.Context) (types.User, bool) {
	u := c.Get(UserKey)
	if u != nil {
		user := u.(types.User)
		logrus.Debugf("Found session user %s", user.Email)
		return user, true
	}
	return types.User{}, false
}

// sessionOwner is the owner key for the request, empty when nobody is signed in.
func sessionOwner(c echo.Context) string {
	user, ok := GetSessionUser(c)
	if !ok {
		return ""
	}
	return user.Owner()
}

// wantsJSON is true for API clients. Browsers posting forms get HTML and redirects.
func wantsJSON(c echo.Context) bool {
	req := c.Request()
	return strings.Contains(req.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) ||
		strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// redirectBack sends a browser to the page it came from on this site, or to fallback.
func redirectBack(c echo.Context, fallback string) error {
	target := fallback
	if ref, err := url.Parse(c.Request().Referer()); err == nil && strings.HasPrefix(ref.Path, "/") {
		target = ref.RequestURI()
	}
	return c.Redirect(http.StatusFound, target)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}
