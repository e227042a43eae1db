// Package gateway is the single choke point for backend access. Every
// component talks to the relational backend through Client.Request, which
// routes calls through the REST proxy and applies the tenant-scoping rules
// uniformly. No other package may issue backend calls.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Access methods mapped onto the proxy's HTTP verbs.
type Method string

const (
	Read    Method = http.MethodGet
	Create  Method = http.MethodPost
	Update  Method = http.MethodPatch
	Replace Method = http.MethodPut
	Delete  Method = http.MethodDelete
)

// Backend collection names.
const (
	CollectionCredenciais     = "credenciais"
	CollectionFiliais         = "filiais"
	CollectionLojas           = "lojas"
	CollectionDocas           = "docas"
	CollectionLideres         = "lideres"
	CollectionVeiculos        = "veiculos"
	CollectionMotoristas      = "motoristas"
	CollectionExpeditions     = "expeditions"
	CollectionExpeditionItems = "expedition_items"
)

// Credentials and filiais are never tenant-scoped.
var tenantExempt = map[string]bool{
	CollectionCredenciais: true,
	CollectionFiliais:     true,
}

// Collections whose filial column is assigned by a backend trigger; the
// gateway strips the field from write payloads instead of injecting it.
var tenantByTrigger = map[string]bool{
	CollectionExpeditionItems: true,
}

// TenantSource exposes the currently selected filial. An empty name means
// no filial is selected and no scoping is applied.
type TenantSource interface {
	CurrentFilial() string
}

// APIError is the one typed failure for backend and transport errors.
// Status is the HTTP status code, or zero for network-level failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("erro de comunicação: %s", e.Message)
	}
	return fmt.Sprintf("erro %d: %s", e.Status, e.Message)
}

// Client issues proxy calls. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tenant     TenantSource
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, tenant TenantSource, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tenant:     tenant,
		logger:     logger,
	}
}

// Request executes exactly one proxy call and returns the raw JSON result,
// or nil for delete and no-content responses.
//
// endpoint is the collection name with optional inline query parameters
// ("expeditions?order=data_hora.desc"). tenantScope asks for the filial
// filter on reads and filial injection on writes; both are skipped for the
// exempt collections, and writes to trigger-assigned collections have the
// filial field stripped regardless of the flag.
func (c *Client) Request(ctx context.Context, endpoint string, method Method, payload interface{}, tenantScope bool) (json.RawMessage, error) {
	collection, rawQuery, _ := strings.Cut(endpoint, "?")

	reqURL := c.baseURL + "?endpoint=" + url.QueryEscape(collection)
	if rawQuery != "" {
		reqURL += "&" + rawQuery
	}

	filial := c.tenant.CurrentFilial()

	if method == Read && tenantScope && filial != "" && !tenantExempt[collection] {
		reqURL += "&filial=eq." + url.QueryEscape(filial)
	}

	var bodyReader io.Reader
	if payload != nil && (method == Create || method == Update || method == Replace) {
		shaped, err := shapePayload(collection, filial, tenantScope, payload)
		if err != nil {
			return nil, err
		}
		bodyBytes, err := json.Marshal(shaped)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == Create || method == Update {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Proxy request failed",
			zap.String("method", string(method)),
			zap.String("collection", collection),
			zap.Error(err),
		)
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: extractMessage(body)}
		c.logger.Warn("Proxy returned error",
			zap.String("method", string(method)),
			zap.String("collection", collection),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return nil, apiErr
	}

	if method == Delete || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	return json.RawMessage(body), nil
}

// Get reads from a collection and decodes the result into out.
func (c *Client) Get(ctx context.Context, endpoint string, tenantScope bool, out interface{}) error {
	raw, err := c.Request(ctx, endpoint, Read, nil, tenantScope)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// shapePayload applies the write-side tenant rules to a single record or a
// list of records. Records are reshaped generically so the rules hold for
// any payload type.
func shapePayload(collection, filial string, tenantScope bool, payload interface{}) (interface{}, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	apply := func(record map[string]interface{}) map[string]interface{} {
		if tenantByTrigger[collection] {
			delete(record, "filial")
		} else if tenantScope && filial != "" && !tenantExempt[collection] {
			record["filial"] = filial
		}
		return record
	}

	if bytes.HasPrefix(bytes.TrimSpace(encoded), []byte("[")) {
		var records []map[string]interface{}
		if err := json.Unmarshal(encoded, &records); err != nil {
			return nil, fmt.Errorf("failed to decode payload list: %w", err)
		}
		for i := range records {
			records[i] = apply(records[i])
		}
		return records, nil
	}

	var record map[string]interface{}
	if err := json.Unmarshal(encoded, &record); err != nil {
		return nil, fmt.Errorf("failed to decode payload record: %w", err)
	}
	return apply(record), nil
}

// extractMessage pulls the best-effort error message from a proxy error
// body: a structured {message} or {details} when present, else raw text.
func extractMessage(body []byte) string {
	var structured struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		if structured.Message != "" {
			return structured.Message
		}
		if structured.Details != "" {
			return structured.Details
		}
	}
	return strings.TrimSpace(string(body))
}
