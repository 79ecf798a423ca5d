// Package dispatch publishes finished documents as delivery tasks on NATS
// JetStream, so the mail executor can send them out of process.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	// StreamName is the JetStream stream holding delivery tasks.
	StreamName = "DELIVERIES"
	// SubjectEmail is the subject the mail executor consumes.
	SubjectEmail = "deliveries.email"
	// ConsumerName is the durable consumer used by the mail executor.
	ConsumerName = "mailExecutor"
)

// DeliveryTask is one outbound email delivery: the document plus its
// envelope. The attachment travels base64-encoded inside the JSON payload.
type DeliveryTask struct {
	TaskID     string `json:"task_id"`
	Recipient  string `json:"recipient"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Attachment []byte `json:"attachment,omitempty"`
	Filename   string `json:"filename,omitempty"`
}

// NewDeliveryTask builds a task with a fresh task id.
func NewDeliveryTask(recipient, subject, body string, attachment []byte, filename string) DeliveryTask {
	return DeliveryTask{
		TaskID:     uuid.New().String(),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		Attachment: attachment,
		Filename:   filename,
	}
}

// EnsureStream creates the delivery stream if it does not exist yet
// (idempotent).
func EnsureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo(StreamName)
	if err == nil {
		return nil
	}
	log.Printf("Stream %s not found, creating it for subject deliveries.>", StreamName)
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"deliveries.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create NATS stream %s: %w", StreamName, err)
	}
	return nil
}

// Publisher publishes delivery tasks to JetStream.
type Publisher struct {
	js nats.JetStreamContext
}

// NewPublisher creates a publisher on an existing JetStream context.
func NewPublisher(js nats.JetStreamContext) *Publisher {
	return &Publisher{js: js}
}

// PublishDelivery marshals the task and publishes it on the email subject.
func (p *Publisher) PublishDelivery(task DeliveryTask) error {
	if task.TaskID == "" {
		task.TaskID = uuid.New().String()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery task %s: %w", task.TaskID, err)
	}
	if _, err := p.js.Publish(SubjectEmail, payload); err != nil {
		return fmt.Errorf("failed to publish delivery task %s: %w", task.TaskID, err)
	}
	log.Printf("Published delivery task %s to %s (recipient: %s, attachment: %d bytes)",
		task.TaskID, SubjectEmail, task.Recipient, len(task.Attachment))
	return nil
}
