package main

import (
	"fmt"
	"log"

	"site-projects/internal/attendance"
	"site-projects/internal/auth"
	"site-projects/internal/config"
	"site-projects/internal/database"
	"site-projects/internal/expenses"
	"site-projects/internal/handlers"
	"site-projects/internal/labor"
	"site-projects/internal/notify"
	"site-projects/internal/projects"
	"site-projects/internal/server"
)

func main() {
	cfg := config.Load()
	db := database.Init(cfg.DBDriver, cfg.DBDSN)

	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	scope, err := labor.ParseDriverScope(cfg.DriverDaysScope)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc := cfg.TimeLocation()

	sender := notify.New(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if cfg.SMTPHost == "" {
		log.Printf("SMTP_HOST is not set, notifications go to the log")
	}

	aggregator := labor.NewAggregator(db, labor.Options{DriverDaysScope: scope})
	h := &handlers.Handler{
		DB:     db,
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL, nil),
		Projects: projects.NewService(db, projects.Options{
			Sender:  sender,
			BaseURL: cfg.AppBaseURL,
			Inbox:   cfg.NotificationInbox,
		}),
		Ledger:   attendance.NewLedger(db, nil, loc),
		Expenses: expenses.NewService(db, aggregator, nil, loc),
	}

	r := server.NewRouter(cfg, h)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("starting server on %s (db=%s, tz=%s, driver days=%s)", addr, cfg.DBDriver, loc, scope)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
