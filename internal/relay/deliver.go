package relay

import (
	"github.com/verblead/ghl-adf-exporter/internal/dispatch"
	"github.com/verblead/ghl-adf-exporter/internal/mailer"
)

// MailDeliverer delivers documents directly over SMTP.
type MailDeliverer struct {
	Mailer    mailer.Mailer
	Recipient string
	Subject   string
	Body      string
	Filename  string
}

// Deliver sends the document as an email attachment.
func (d *MailDeliverer) Deliver(document []byte) error {
	return d.Mailer.Send(d.Recipient, d.Subject, d.Body, document, d.Filename)
}

// NATSDeliverer publishes documents as delivery tasks for the out-of-process
// mail executor.
type NATSDeliverer struct {
	Publisher *dispatch.Publisher
	Recipient string
	Subject   string
	Body      string
	Filename  string
}

// Deliver enqueues a delivery task on JetStream.
func (d *NATSDeliverer) Deliver(document []byte) error {
	task := dispatch.NewDeliveryTask(d.Recipient, d.Subject, d.Body, document, d.Filename)
	return d.Publisher.PublishDelivery(task)
}
