package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/rubric"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool
		// Shutdown is called when an unrecoverable error is caught.
		Shutdown func()

		UserSvc         *user.Service
		SubmissionSvc   *submission.Service
		AttendanceSvc   *attendance.Service
		NotificationSvc *notification.Service
		RubricSvc       *rubric.Service
		VisitSvc        *visit.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf
	initAuth(conf)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := s.opts.Shutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	api := s.app.Group("/api")
	api.Use(visitTrackerMiddleware(s.opts.VisitSvc))

	jwt := middleware.JWTWithConfig(appJWTConfig)
	authed := activeUserMiddleware(s.opts.UserSvc)

	registerAuthAPI(api, jwt, authed, conf, s.opts.UserSvc, s.opts.SubmissionSvc, s.opts.NotificationSvc)
	registerUserAPI(api, jwt, authed, s.opts.UserSvc)
	registerTaskAPI(api, jwt, authed, s.opts.SubmissionSvc, s.opts.UserSvc)
	registerSubmissionAPI(api, jwt, authed, s.opts.SubmissionSvc, s.opts.UserSvc)
	registerAttendanceAPI(api, jwt, authed, s.opts.AttendanceSvc, s.opts.UserSvc)
	registerNotificationAPI(api, jwt, authed, s.opts.NotificationSvc, s.opts.UserSvc)
	registerRubricAPI(api, jwt, authed, s.opts.RubricSvc)
	registerVisitAPI(api, jwt, authed, s.opts.VisitSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Address()))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
