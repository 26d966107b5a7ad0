package echoapi

import (
	"context"
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/onboarding"
	"github.com/ongoza/cyberhub/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		DisableReqLogs bool
		Logger         core.Logger
		Translator     ut.Translator
		UserSvc        *user.Service
		OnboardingSvc  *onboarding.Service
		MetricsHandler http.Handler // optional
		SignalShutdown func()       // optional
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *authenticator
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = core.NopLogger()
	}
	if opts.Translator == nil {
		opts.Translator = core.NewTranslator()
	}
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuthenticator(opts.Conf),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Onboarding.MaxUploadSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.auth, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	if s.opts.MetricsHandler != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.opts.MetricsHandler))
	}

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc)
	registerOnboardingAPI(v1, jwt, s.auth, s.opts.OnboardingSvc, conf.Onboarding.MaxUploadSize)
}

// bodyLimit leaves room for the multipart envelope around the largest accepted upload.
func bodyLimit(maxUpload int64) string {
	if maxUpload <= 0 {
		maxUpload = onboarding.DefaultMaxUploadSize
	}
	return strconv.FormatInt((maxUpload>>20)+1, 10) + "M"
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Conf.Server.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}
