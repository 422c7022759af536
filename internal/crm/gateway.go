// Package crm talks to the external Bitrix-style CRM over its webhook API.
//
// The gateway normalizes every failure mode (unconfigured endpoint, network
// error, non-2xx response, undecodable body, remote error payload) into a
// returned error. Retry policy, if any, belongs to the caller.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/clientcare/support-portal/internal/config"
)

// Response is the decoded JSON body of a successful CRM call.
type Response map[string]any

// ErrNotConfigured is returned by the disabled gateway.
var ErrNotConfigured = errors.New("bitrix webhook url is not configured")

// RemoteError carries an error payload returned by the CRM itself, so the
// caller can persist it for audit.
type RemoteError struct {
	Method  string
	Payload Response
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("crm %s returned error payload", e.Method)
}

// Gateway is the outbound CRM capability. Exactly one implementation is
// selected at startup; there is no run-time feature detection.
type Gateway interface {
	Call(ctx context.Context, method string, payload any) (Response, error)
}

// NewGateway returns the webhook-backed gateway when a URL is configured and
// the always-failing one otherwise.
func NewGateway(cfg config.CRMConfig, logger *zap.Logger) Gateway {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		logger.Warn("BITRIX_WEBHOOK_URL not set; CRM mirroring disabled")
		return disabledGateway{}
	}
	return &webhookGateway{
		baseURL: strings.TrimRight(cfg.WebhookURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type webhookGateway struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func (g *webhookGateway) Call(ctx context.Context, method string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", method, err)
	}

	url := g.baseURL + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("crm %s responded with status %d", method, resp.StatusCode)
	}

	var decoded Response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if _, hasErr := decoded["error"]; hasErr {
		return nil, &RemoteError{Method: method, Payload: decoded}
	}
	return decoded, nil
}

type disabledGateway struct{}

func (disabledGateway) Call(context.Context, string, any) (Response, error) {
	return nil, ErrNotConfigured
}

// EntityID extracts the numeric entity id from a creation response. Bitrix
// returns it under "result", as a JSON number.
func EntityID(resp Response) (int64, bool) {
	val, ok := resp["result"]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return int64(v), true
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	default:
		return 0, false
	}
}
