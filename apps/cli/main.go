package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RTBS-ISP/UniPlus-sub000/core"
	logsvc "github.com/RTBS-ISP/UniPlus-sub000/services/logger"
	"github.com/RTBS-ISP/UniPlus-sub000/storage/restapi"
)

var logger *logsvc.RollbarLogger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stderr, "CLI : ", log.LstdFlags), conf)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	client, err := restapi.NewClient(restapi.Options{
		BaseURL:   conf.API.BaseURL,
		Timeout:   conf.API.Timeout,
		UserAgent: conf.API.UserAgent,
		Logger:    logger,
	})
	errAndDie(err)

	// resume the previous session
	store := sessionStore{path: conf.CLI.SessionFile}
	cookies, err := store.load()
	if err != nil {
		logger.Warn("could not load the saved session", err)
	}
	client.SetCookies(cookies)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := newCommandLine(os.Stdout, restRepositories(client), conf.Query.PageSize)
	runErr := cli.run(ctx, os.Args)

	if err := store.save(client.Cookies()); err != nil {
		logger.Warn("could not save the session", err)
	}
	if runErr != nil {
		if runErr != errHelp {
			logger.Error("command failed", runErr)
		}
		stop()
		logger.Close()
		os.Exit(1)
	}
}

func restRepositories(c *restapi.Client) repositories {
	return repositories{
		users:         restapi.NewUserRepository(c),
		events:        restapi.NewEventRepository(c),
		dashboard:     restapi.NewDashboardRepository(c),
		notifications: restapi.NewNotificationRepository(c),
		admin:         restapi.NewAdminRepository(c),
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("CLI setup failed", err)
	}
}
