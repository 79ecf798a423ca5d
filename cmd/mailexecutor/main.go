package main

import (
	"encoding/json"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/verblead/ghl-adf-exporter/internal/dispatch"
	"github.com/verblead/ghl-adf-exporter/internal/mailer"
)

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func main() {
	log.Println("Starting Mail Executor Service...")

	natsURL := getEnv("NATS_URL", nats.DefaultURL)
	smtpMailer := mailer.NewSMTPMailer(
		os.Getenv("SMTP_HOST"),
		os.Getenv("SMTP_PORT"),
		os.Getenv("SMTP_USER"),
		os.Getenv("SMTP_PASS"),
		getEnv("SENDER_EMAIL", "noreply@example.com"),
	)
	if smtpMailer.Host == "" || smtpMailer.Port == "" {
		log.Println("Warning: SMTP_HOST or SMTP_PORT not configured. Email sending will be simulated.")
	}

	nc, err := nats.Connect(natsURL)
	if err != nil {
		log.Fatalf("Error connecting to NATS at %s: %v", natsURL, err)
	}
	defer nc.Close()
	log.Printf("Connected to NATS server: %s", natsURL)

	js, err := nc.JetStream()
	if err != nil {
		log.Fatalf("Error getting JetStream context: %v", err)
	}
	if err := dispatch.EnsureStream(js); err != nil {
		log.Fatalf("Error ensuring delivery stream: %v", err)
	}

	_, err = js.Subscribe(dispatch.SubjectEmail, func(msg *nats.Msg) {
		handleDeliveryTask(smtpMailer, msg)
	}, nats.Durable(dispatch.ConsumerName), nats.AckWait(60*time.Second), nats.ManualAck())
	if err != nil {
		log.Fatalf("Error subscribing to subject %s: %v", dispatch.SubjectEmail, err)
	}

	log.Printf("Subscribed to %s with durable consumer %s. Waiting for delivery tasks...",
		dispatch.SubjectEmail, dispatch.ConsumerName)
	runtime.Goexit()
}

func handleDeliveryTask(m mailer.Mailer, msg *nats.Msg) {
	var task dispatch.DeliveryTask
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		log.Printf("Error unmarshalling delivery task: %v. Terminating message.", err)
		// Malformed tasks can never succeed; drop them instead of redelivering.
		if err := msg.Term(); err != nil {
			log.Printf("Error terminating malformed message: %v", err)
		}
		return
	}

	log.Printf("Processing delivery task %s (recipient: %s, attachment: %d bytes)",
		task.TaskID, task.Recipient, len(task.Attachment))

	if err := m.Send(task.Recipient, task.Subject, task.Body, task.Attachment, task.Filename); err != nil {
		log.Printf("Delivery task %s failed: %v", task.TaskID, err)
		// Ack anyway: SMTP failures are logged, not retried, to avoid
		// re-mailing the same batch on transient errors.
	}

	if err := msg.Ack(); err != nil {
		log.Printf("Error acking delivery task %s: %v", task.TaskID, err)
	}
}
