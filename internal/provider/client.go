package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pixgate/internal/config"
	"pixgate/internal/util"
)

// Client calls the third-party cash-in provider. All requests carry the
// static bearer token from configuration.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg *config.ProviderConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// CashinRequest creates a PIX QR code charge. Value is integer cents and
// ExternalID correlates the charge with the later webhook callback.
type CashinRequest struct {
	Value         int64  `json:"value"`
	ExternalID    string `json:"externalId"`
	PayerName     string `json:"payerName"`
	PayerDocument string `json:"payerDocument"`
}

type CashinResponse struct {
	TransactionID string `json:"transactionId"`
	QRCode        string `json:"qrCode"`
	Status        string `json:"status"`
}

type BalanceResponse struct {
	Available int64  `json:"available"`
	Pending   int64  `json:"pending"`
	Currency  string `json:"currency"`
}

// CreateCashin requests a new PIX QR code charge from the provider.
func (c *Client) CreateCashin(ctx context.Context, req *CashinRequest) (*CashinResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cashin request: %w", err)
	}

	out := &CashinResponse{}
	if err := c.do(ctx, http.MethodPost, "/transaction/qrcode/cashin", bytes.NewReader(body), out); err != nil {
		return nil, err
	}

	util.Info("Provider cashin created",
		util.String("external_id", req.ExternalID),
		util.String("transaction_id", out.TransactionID),
		util.Int64("value", req.Value))
	return out, nil
}

// GetBalance reads the provider-side account balance.
func (c *Client) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	out := &BalanceResponse{}
	if err := c.do(ctx, http.MethodGet, "/transaction/get/balance", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("provider returned %d: %s", res.StatusCode, string(raw))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
