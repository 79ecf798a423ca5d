package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"github.com/verblead/ghl-adf-exporter/internal/config"
	"github.com/verblead/ghl-adf-exporter/internal/crm"
	"github.com/verblead/ghl-adf-exporter/internal/dedup"
	"github.com/verblead/ghl-adf-exporter/internal/dispatch"
	"github.com/verblead/ghl-adf-exporter/internal/mailer"
	"github.com/verblead/ghl-adf-exporter/internal/profile"
	"github.com/verblead/ghl-adf-exporter/internal/relay"
)

func main() {
	log.Println("Starting ADF Lead Relay...")
	cfg := config.Load()

	// --- Mapping profile ---
	prof, err := loadProfile(cfg)
	if err != nil {
		log.Fatalf("Failed to load mapping profile: %v", err)
	}
	log.Printf("Using mapping profile: %s (dedup: %v)", prof.Name, prof.Dedup)

	// --- Dedup store ---
	var store dedup.Store
	if cfg.DedupDBPath != "" {
		gormStore, err := dedup.NewGormStore(cfg.DedupDBPath)
		if err != nil {
			log.Fatalf("Failed to open dedup database: %v", err)
		}
		store = gormStore
		log.Printf("Dedup store: sqlite at %s", cfg.DedupDBPath)
	} else {
		store = dedup.NewMemoryStore()
		log.Println("Dedup store: in-memory (NOT durable; ids reset on restart)")
	}
	gate := dedup.NewGate(store)

	// --- Collaborators ---
	source := crm.NewHTTPLeadClient(cfg.CRMBaseURL, cfg.CRMAPIKey, cfg.CRMLocationID)

	deliverer, natsConn, err := buildDeliverer(cfg)
	if err != nil {
		log.Fatalf("Failed to set up delivery: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	svc := relay.NewService(source, prof, gate, deliverer, relay.Options{ExportPath: cfg.ExportPath})

	// --- Scheduled exports ---
	var scheduler *cron.Cron
	if cfg.ExportCron != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(cfg.ExportCron, func() {
			if _, err := svc.RunExport(); err != nil {
				log.Printf("Scheduled export failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("Invalid EXPORT_CRON expression %q: %v", cfg.ExportCron, err)
		}
		scheduler.Start()
		log.Printf("Scheduled exports enabled: %s", cfg.ExportCron)
	}

	if cfg.RunOnStart {
		if _, err := svc.RunExport(); err != nil {
			log.Printf("Startup export failed: %v", err)
		}
	}

	// --- HTTP server ---
	router := gin.Default()
	svc.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.RelayPort),
		Handler: router,
	}
	go func() {
		log.Printf("Starting relay server on port %s", cfg.RelayPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start relay server: %v", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received...")

	if scheduler != nil {
		scheduler.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}
	log.Println("Relay stopped.")
}

// loadProfile selects the active mapping profile: from the profile directory
// when configured, otherwise from the builtin set.
func loadProfile(cfg config.Config) (*profile.Profile, error) {
	if cfg.ProfileDir != "" {
		profiles, err := profile.LoadDir(cfg.ProfileDir)
		if err != nil {
			return nil, err
		}
		p, ok := profiles[cfg.ProfileName]
		if !ok {
			return nil, fmt.Errorf("profile %q not found in %s", cfg.ProfileName, cfg.ProfileDir)
		}
		return p, nil
	}
	return profile.Builtin(cfg.ProfileName)
}

// buildDeliverer picks the outbound transport: NATS dispatch to the mail
// executor when NATS_URL is set, direct SMTP otherwise.
func buildDeliverer(cfg config.Config) (relay.Deliverer, *nats.Conn, error) {
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to get JetStream context: %w", err)
		}
		if err := dispatch.EnsureStream(js); err != nil {
			nc.Close()
			return nil, nil, err
		}
		log.Printf("Delivery via NATS dispatch (%s)", cfg.NATSURL)
		return &relay.NATSDeliverer{
			Publisher: dispatch.NewPublisher(js),
			Recipient: cfg.ImportEmail,
			Subject:   cfg.EmailSubject,
			Body:      cfg.EmailBodyText,
			Filename:  "lead_export.xml",
		}, nc, nil
	}

	log.Println("Delivery via direct SMTP")
	m := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SenderEmail)
	return &relay.MailDeliverer{
		Mailer:    m,
		Recipient: cfg.ImportEmail,
		Subject:   cfg.EmailSubject,
		Body:      cfg.EmailBodyText,
		Filename:  "lead_export.xml",
	}, nil, nil
}
