package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ushauri/apps/api/echo"
	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/meeting"
	"github.com/trezcool/ushauri/core/mentorship"
	"github.com/trezcool/ushauri/core/roadmap"
	"github.com/trezcool/ushauri/core/user"
	emailsvc "github.com/trezcool/ushauri/services/email"
	logsvc "github.com/trezcool/ushauri/services/logger"
	roadmapsvc "github.com/trezcool/ushauri/services/roadmap"
	"github.com/trezcool/ushauri/storage/database"
	pgrepos "github.com/trezcool/ushauri/storage/database/postgres"
)

func main() {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	db, err := setUpDB()
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrRepo := pgrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc, logger)
	mentorshipSvc := mentorship.NewService(pgrepos.NewMentorshipRepository(db), usrRepo)
	meetingSvc := meeting.NewService(pgrepos.NewMeetingRepository(db), usrRepo, logger)
	roadmapSvc := roadmap.NewService(roadmapsvc.NewGeminiGenerator(core.Conf), logger)

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Address(),
			UserSvc:       usrSvc,
			MentorshipSvc: mentorshipSvc,
			MeetingSvc:    meetingSvc,
			RoadmapSvc:    roadmapSvc,
		},
	)
	go app.Start()

	// graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()

	if err = app.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB() (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		return nil, err
	}

	db, err := database.Open(core.Conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}
