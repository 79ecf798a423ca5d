package crm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// LeadSourceClient defines the interface for pulling lead records from the
// upstream CRM. This allows for easier testing and decoupling.
type LeadSourceClient interface {
	FetchLeads() ([]map[string]interface{}, error)
}

// HTTPLeadClient is an implementation of LeadSourceClient against a
// GoHighLevel-style REST contacts endpoint.
type HTTPLeadClient struct {
	BaseURL    string
	APIKey     string
	LocationID string
	HttpClient *http.Client
}

// NewHTTPLeadClient creates a new client for the CRM contacts API.
func NewHTTPLeadClient(baseURL, apiKey, locationID string) *HTTPLeadClient {
	return &HTTPLeadClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		LocationID: locationID,
		HttpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// contactsResponse mirrors the envelope the CRM wraps contact batches in.
type contactsResponse struct {
	Contacts []map[string]interface{} `json:"contacts"`
}

// FetchLeads pulls the full contact batch for the configured location.
// Callers treat any error as "zero records this pass"; the relay never
// propagates fetch failures past itself.
func (c *HTTPLeadClient) FetchLeads() ([]map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/v1/contacts?locationId=%s", c.BaseURL, url.QueryEscape(c.LocationID))

	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to CRM: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call CRM at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("CRM returned non-OK status %d for location %s", resp.StatusCode, c.LocationID)
	}

	var body contactsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode CRM contacts response: %w", err)
	}
	if body.Contacts == nil {
		return nil, fmt.Errorf("no 'contacts' key found in the CRM response")
	}
	return body.Contacts, nil
}
