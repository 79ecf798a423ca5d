package relay

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/verblead/ghl-adf-exporter/internal/adf"
	"github.com/verblead/ghl-adf-exporter/internal/crm"
	"github.com/verblead/ghl-adf-exporter/internal/dedup"
	"github.com/verblead/ghl-adf-exporter/internal/fieldpath"
	"github.com/verblead/ghl-adf-exporter/internal/profile"
)

// ErrDuplicate marks a lead whose id was already exported in this process.
var ErrDuplicate = errors.New("duplicate lead")

// Deliverer hands a finished ADF document to the outbound transport. The
// envelope (recipient, subject, filename) is configured on the deliverer.
type Deliverer interface {
	Deliver(document []byte) error
}

// Options carries the optional service settings.
type Options struct {
	// ExportPath, when set, also writes every assembled document to disk.
	ExportPath string
}

// Service runs the two lead flows: the scheduled CRM export pull and the
// inbound single-lead webhook. The dedup gate is the only state shared
// across concurrent webhook invocations.
type Service struct {
	source     crm.LeadSourceClient
	profile    *profile.Profile
	gate       *dedup.Gate
	deliverer  Deliverer
	exportPath string
}

// NewService creates a relay service.
func NewService(source crm.LeadSourceClient, p *profile.Profile, gate *dedup.Gate, deliverer Deliverer, opts Options) *Service {
	return &Service{
		source:     source,
		profile:    p,
		gate:       gate,
		deliverer:  deliverer,
		exportPath: opts.ExportPath,
	}
}

// RunExport pulls the current lead batch from the CRM, assembles one ADF
// document and delivers it. Fetch failures count as zero records, and an
// empty batch is the "nothing to send" outcome; neither is an error.
// Returns the number of prospects delivered.
func (s *Service) RunExport() (int, error) {
	log.Printf("Starting lead export (profile: %s)", s.profile.Name)

	leads, err := s.source.FetchLeads()
	if err != nil {
		log.Printf("Error fetching leads: %v. Treating as zero records.", err)
		leads = nil
	}

	if s.profile.Dedup && s.gate != nil {
		admitted := make([]map[string]interface{}, 0, len(leads))
		for _, lead := range leads {
			id, _ := fieldpath.Resolve(lead, s.profile.ID.Path, s.profile.ID.Fallbacks...)
			if !s.gate.Admit(id) {
				log.Printf("Skipping duplicate lead id %s", id)
				continue
			}
			admitted = append(admitted, lead)
		}
		leads = admitted
	}

	document, err := adf.Assemble(leads, s.profile)
	if err != nil {
		return 0, fmt.Errorf("failed to assemble ADF document: %w", err)
	}
	if document == nil {
		log.Printf("No leads to export. No document produced.")
		return 0, nil
	}

	s.writeExportFile(document)
	s.deliver(document)

	log.Printf("Exported %d leads (%d bytes)", len(leads), len(document))
	return len(leads), nil
}

// ProcessLead maps one inbound webhook lead into a single-prospect document
// and delivers it. Returns ErrDuplicate when the profile runs the gate and
// the lead id was already seen.
func (s *Service) ProcessLead(record map[string]interface{}) ([]byte, error) {
	if s.profile.Dedup && s.gate != nil {
		id, _ := fieldpath.Resolve(record, s.profile.ID.Path, s.profile.ID.Fallbacks...)
		if !s.gate.Admit(id) {
			return nil, fmt.Errorf("lead id %s: %w", id, ErrDuplicate)
		}
	}

	document, err := adf.Assemble([]map[string]interface{}{record}, s.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble ADF document: %w", err)
	}

	s.writeExportFile(document)
	s.deliver(document)
	return document, nil
}

// writeExportFile mirrors the document to disk when configured. A write
// failure is logged; the document still gets delivered.
func (s *Service) writeExportFile(document []byte) {
	if s.exportPath == "" {
		return
	}
	if err := os.WriteFile(s.exportPath, document, 0o644); err != nil {
		log.Printf("Error writing export file %s: %v", s.exportPath, err)
		return
	}
	log.Printf("ADF document saved to %s", s.exportPath)
}

// deliver hands the document off. Delivery failure is logged and does not
// roll back the document already written.
func (s *Service) deliver(document []byte) {
	if s.deliverer == nil {
		return
	}
	if err := s.deliverer.Deliver(document); err != nil {
		log.Printf("Error delivering document: %v", err)
	}
}

// RegisterRoutes wires the webhook and health endpoints onto the router.
func (s *Service) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhook", s.handleWebhook)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// handleWebhook accepts one lead as a JSON object. Malformed or empty
// payloads are rejected at the boundary before reaching the mapper.
func (s *Service) handleWebhook(c *gin.Context) {
	var lead map[string]interface{}
	if err := c.ShouldBindJSON(&lead); err != nil {
		log.Printf("Error binding webhook payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if len(lead) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty lead payload"})
		return
	}

	document, err := s.ProcessLead(lead)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate lead"})
			return
		}
		log.Printf("Error processing webhook lead: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "lead processed",
		"document_bytes": len(document),
	})
}
