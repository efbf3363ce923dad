package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkout-service/internal/domain"
)

var ErrGatewayNotConfigured = errors.New("payment gateway access token is not configured")

// ConnectionError wraps transport failures (DNS, refused, timeout).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway API error: status %d: %s", e.StatusCode, e.Body)
}

const maxErrorBody = 4 << 10

type GatewayClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewGatewayClient(baseURL, accessToken string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: strings.TrimSpace(accessToken),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Sandbox reports whether the credential is a test credential.
func (c *GatewayClient) Sandbox() bool {
	return strings.HasPrefix(c.accessToken, "TEST-")
}

func (c *GatewayClient) configured() bool {
	t := c.accessToken
	if t == "" {
		return false
	}
	upper := strings.ToUpper(t)
	return !strings.HasPrefix(upper, "YOUR_") && !strings.HasPrefix(upper, "TU_") && !strings.HasPrefix(t, "<")
}

func (c *GatewayClient) CreatePreference(ctx context.Context, req *domain.PreferenceRequest) (*domain.PaymentPreference, error) {
	var pref domain.PaymentPreference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", req, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetPayment returns nil, nil when the gateway does not know the id.
func (c *GatewayClient) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, &p)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchPayments lists payments for an external reference, newest first.
func (c *GatewayClient) SearchPayments(ctx context.Context, externalReference string) ([]domain.Payment, error) {
	q := url.Values{}
	q.Set("external_reference", externalReference)
	q.Set("sort", "date_created")
	q.Set("criteria", "desc")

	var out struct {
		Results []domain.Payment `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/payments/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *GatewayClient) do(ctx context.Context, method, path string, in, out any) error {
	if !c.configured() {
		return ErrGatewayNotConfigured
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
