// Package paystack is a minimal client for the Paystack transaction API.
package paystack

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

const DefaultBaseURL = "https://api.paystack.co"

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL, secretKey string, timeout time.Duration, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With(zap.String("integration", "paystack")),
	}
}

// InitializeTransaction registers the charge and returns the checkout URL.
func (c *Client) InitializeTransaction(ctx context.Context, in InitializeRequest) (*Authorization, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode initialize request: %w", err)
	}

	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &auth); err != nil {
		c.log.Error("Initialize transaction failed",
			zap.String("reference", in.Reference),
			zap.Error(err))
		return nil, err
	}
	if auth.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization_url", ErrInvalidResponse)
	}
	if auth.Reference == "" {
		auth.Reference = in.Reference
	}

	c.log.Info("Transaction initialized",
		zap.String("reference", auth.Reference),
		zap.Int64("amount", in.Amount))
	return &auth, nil
}

// VerifyTransaction fetches the authoritative status of a charge.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrRejected)
	}

	var tx Transaction
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, http.MethodGet, path, nil, &tx); err != nil {
		c.log.Warn("Verify transaction failed",
			zap.String("reference", reference),
			zap.Error(err))
		return nil, err
	}
	tx.Metadata = unwrapMetadata(tx.Metadata)

	return &tx, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return ErrTransactionNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, messageOf(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if !env.Status {
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: empty data", ErrInvalidResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode data: %v", ErrInvalidResponse, err)
	}
	return nil
}

func messageOf(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(raw))
}

// Paystack echoes metadata either as an object or as the JSON string it was given.
func unwrapMetadata(raw json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return raw
}
