package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/bmwamba/darasa/apps/api/echo"
	"github.com/bmwamba/darasa/core"
	"github.com/bmwamba/darasa/core/attendance"
	"github.com/bmwamba/darasa/core/notification"
	"github.com/bmwamba/darasa/core/rubric"
	"github.com/bmwamba/darasa/core/submission"
	"github.com/bmwamba/darasa/core/user"
	"github.com/bmwamba/darasa/core/visit"
	emailsvc "github.com/bmwamba/darasa/services/email"
	logsvc "github.com/bmwamba/darasa/services/logger"
	"github.com/bmwamba/darasa/storage/database"
	sqlxrepos "github.com/bmwamba/darasa/storage/database/sqlx"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := core.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, logger, conf)
	notifSvc := notification.NewService(sqlxrepos.NewNotificationRepository(db))
	subSvc := submission.NewService(sqlxrepos.NewSubmissionRepository(db), notifSvc, logger)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(db), logger)
	rubSvc := rubric.NewService(sqlxrepos.NewRubricRepository(db))
	visitSvc := visit.NewService(sqlxrepos.NewVisitRepository(db), logger)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:            conf,
		Logger:          logger,
		Shutdown:        func() { shutdown <- syscall.SIGTERM },
		UserSvc:         usrSvc,
		SubmissionSvc:   subSvc,
		AttendanceSvc:   attSvc,
		NotificationSvc: notifSvc,
		RubricSvc:       rubSvc,
		VisitSvc:        visitSvc,
	})

	go server.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(db); err != nil {
		return nil, err
	}
	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		return nil, err
	}
	return db, nil
}
