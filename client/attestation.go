package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the EAS GraphQL API for Base Sepolia.
const DefaultEndpoint = "https://base-sepolia.easscan.org/graphql"

// defaultTimeout bounds the single lookup request.
const defaultTimeout = 20 * time.Second

// attestationQuery selects the fields of a single attestation by its UID.
const attestationQuery = `query ($id: String!) {
  attestation(where: { id: $id }) {
    id
    txid
    schemaId
    attester
    recipient
  }
}`

// Attestation is a single attestation record as returned by the EAS API.
// TxID and Recipient are pointers because the API returns null for
// off-chain attestations and recipient-less schemas; a nil pointer means
// the field was absent, which is distinct from an empty string.
type Attestation struct {
	UID       string  `json:"uid"`
	TxID      *string `json:"txid"`
	Schema    string  `json:"schema"`
	Attester  string  `json:"attester"`
	Recipient *string `json:"recipient"`
}

// Client is the HTTP client for the EAS GraphQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new EAS client. A nil httpClient gets a default with
// a 20-second timeout; a nil logger discards all output.
func NewClient(endpoint string, httpClient *http.Client, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetAttestation fetches a single attestation by UID. A (nil, nil) return
// means the query succeeded but no attestation with that UID exists; errors
// are reserved for transport failures and malformed responses.
func (c *Client) GetAttestation(ctx context.Context, uid string) (*Attestation, error) {
	if uid == "" {
		return nil, fmt.Errorf("uid is required")
	}

	reqBody := map[string]interface{}{
		"query":     attestationQuery,
		"variables": map[string]string{"id": uid},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope attestationResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	rec := envelope.Data.Attestation
	if rec == nil {
		c.logger.Debug("attestation not found", "uid", uid)
		return nil, nil
	}

	c.logger.Debug("attestation fetched", "uid", rec.ID, "schema", rec.SchemaID)
	return responseToAttestation(rec), nil
}

// attestationResponse is the GraphQL response envelope. A null or absent
// data.attestation field means no record matched the UID.
type attestationResponse struct {
	Data struct {
		Attestation *attestationRecord `json:"attestation"`
	} `json:"data"`
}

// attestationRecord is the API wire format for an attestation.
// The easscan API calls the schema field schemaId.
type attestationRecord struct {
	ID        string  `json:"id"`
	TxID      *string `json:"txid"`
	SchemaID  string  `json:"schemaId"`
	Attester  string  `json:"attester"`
	Recipient *string `json:"recipient"`
}

// responseToAttestation converts an API record to a domain Attestation.
// Fields the API omitted pass through as-is; the API is trusted on shape.
func responseToAttestation(rec *attestationRecord) *Attestation {
	return &Attestation{
		UID:       rec.ID,
		TxID:      rec.TxID,
		Schema:    rec.SchemaID,
		Attester:  rec.Attester,
		Recipient: rec.Recipient,
	}
}
