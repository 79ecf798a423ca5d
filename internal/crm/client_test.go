package crm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/contacts", r.URL.Path)
		assert.Equal(t, "loc 1", r.URL.Query().Get("locationId"), "location id must be URL-escaped")
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contacts":[{"id":"1","firstName":"Jane"},{"id":"2"}]}`))
	}))
	defer server.Close()

	client := NewHTTPLeadClient(server.URL, "secret-key", "loc 1")
	leads, err := client.FetchLeads()
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "1", leads[0]["id"])
	assert.Equal(t, "Jane", leads[0]["firstName"])
}

func TestFetchLeadsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewHTTPLeadClient(server.URL, "bad-key", "loc1")
	_, err := client.FetchLeads()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-OK status 401")
}

func TestFetchLeadsMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewHTTPLeadClient(server.URL, "key", "loc1")
	_, err := client.FetchLeads()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestFetchLeadsMissingContactsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"users":[]}`))
	}))
	defer server.Close()

	client := NewHTTPLeadClient(server.URL, "key", "loc1")
	_, err := client.FetchLeads()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no 'contacts' key")
}

func TestFetchLeadsEmptyBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"contacts":[]}`))
	}))
	defer server.Close()

	client := NewHTTPLeadClient(server.URL, "key", "loc1")
	leads, err := client.FetchLeads()
	require.NoError(t, err)
	assert.Empty(t, leads)
}
