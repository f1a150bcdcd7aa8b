package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/app"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/alert"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/config"
	idb "github.com/Telyonok/Congratulator-Plugin/internal/infra/database"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/flow"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/gender"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/httpapi"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/logger"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/mailer"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/scheduler"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/templates"
)

func main() {
	fmt.Println("Birthday Congratulator starting...")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Could not load application configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. Mode: %s, Environment: %s", cfg.DispatchMode, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL, idb.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	contactRepo := idb.NewPostgresContactRepository(db)
	emailRepo := idb.NewPostgresEmailRepository(db)
	log.Info("Repositories initialized.")

	// Load the template table (read-only after this point)
	templateTable, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		log.Fatalf("Could not load email templates: %v", err)
	}
	log.Infof("Loaded %d email template(s).", len(templateTable))

	// Initialize collaborators
	composer := app.NewComposer(templateTable)
	guard := app.NewSentGuard(emailRepo)
	classifier := gender.NewClient(cfg.GenderServiceURL)
	trigger := flow.NewClient(cfg.FlowTriggerURL)

	transport, err := mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		FromName:    cfg.SMTPFromName,
		FromAddress: cfg.SMTPFromAddress,
	}, log)
	if err != nil {
		log.Fatalf("Could not initialize SMTP transport: %v", err)
	}

	var alerts alert.Notifier = alert.Nop{}
	if cfg.AlertTelegramToken != "" {
		tg, err := alert.NewTelegramNotifier(cfg.AlertTelegramToken, cfg.AlertTelegramChatID)
		if err != nil {
			log.Fatalf("Could not initialize Telegram alert notifier: %v", err)
		}
		alerts = tg
		log.Info("Telegram ops alerts enabled.")
	}

	// Initialize services
	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		Mode:            app.Mode(cfg.DispatchMode),
		GenderCountryID: cfg.GenderCountryID,
		SendHourUTC:     cfg.SendHourUTC,
		DefaultSenderID: cfg.DefaultSenderID,
	}, guard, composer, classifier, contactRepo, emailRepo, transport, trigger, log)
	definer := app.NewGenderDefiner(classifier, contactRepo, cfg.GenderCountryID, log)
	delivery := app.NewDeliveryService(contactRepo, guard, composer, emailRepo, transport, log)
	log.Info("Services initialized.")

	// The sweep synthesizes update events, which only the scheduled variant
	// reacts to.
	var sweeper *scheduler.BirthdaySweeper
	if cfg.DispatchMode == config.DispatchModeScheduled {
		sweeper = scheduler.NewBirthdaySweeper(dispatcher, contactRepo, log, cfg.CronSpecBirthdaySweep)
		sweeper.Start()
	}

	// Start the webhook HTTP server
	apiServer := httpapi.NewServer(dispatcher, definer, delivery, contactRepo, alerts, log)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("Webhook server listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Webhook server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Webhook server shutdown failed: %v", err)
	}
	if sweeper != nil {
		sweeper.Stop()
	}
	log.Info("Application shut down gracefully.")
}
