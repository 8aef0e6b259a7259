// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeAuthRejected
	ErrTypeBackend
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrAuthRejected = &ClientError{Type: ErrTypeAuthRejected, Message: "credential rejected by backend"}
	ErrUnreachable  = &ClientError{Type: ErrTypeConnection, Message: "backend is unreachable"}
)

// IsAuthRejected reports whether err is a 401/403 rejection of the
// bearer credential.
func IsAuthRejected(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeAuthRejected
	}
	return errors.Is(err, ErrAuthRejected)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsTransient reports whether err is the kind of failure a recurring
// fetch should survive: network trouble or a non-auth backend error.
func IsTransient(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type {
		case ErrTypeConnection, ErrTypeTimeout, ErrTypeBackend, ErrTypeInvalidResponse:
			return true
		}
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000).
	// Uses an explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows.
	BaseURL string

	// Timeout for requests (default: 10s).
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://127.0.0.1:8000",
		Timeout: 10 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the SCM Lite backend.
// It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// Login submits primary credentials. A 200 yields a credential and
// profile; a 202 yields a step-up challenge with the pinned principal;
// 4xx yields a backend error carrying the detail message.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	resp, err := c.post(ctx, "/login", req, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		var result LoginResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode login response", Cause: err}
		}
		if resp.StatusCode == http.StatusAccepted {
			result.StepUpRequired = true
		}
		return &result, nil
	default:
		return nil, c.backendFailure(resp, "login failed")
	}
}

// VerifyStepUp submits the second-factor code for the pinned principal.
func (c *Client) VerifyStepUp(ctx context.Context, req StepUpRequest) (*LoginResult, error) {
	resp, err := c.post(ctx, "/verify-step-up", req, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.backendFailure(resp, "step-up verification failed")
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode step-up response", Cause: err}
	}
	return &result, nil
}

// VerifyCredential asks the backend whether the credential is still
// accepted. A nil return means valid; ErrAuthRejected means the backend
// said no.
func (c *Client) VerifyCredential(ctx context.Context, credential string) error {
	resp, err := c.get(ctx, "/api/v1/verify-token", credential)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthRejected
	default:
		return c.backendFailure(resp, "credential verification failed")
	}
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	resp, err := c.post(ctx, "/signup", req, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.backendFailure(resp, "signup failed")
	}
	return nil
}

// RequestPasswordReset asks the backend to mail a reset token.
func (c *Client) RequestPasswordReset(ctx context.Context, req ResetRequest) error {
	resp, err := c.post(ctx, "/reset-password-request", req, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.backendFailure(resp, "password reset request failed")
	}
	return nil
}

// ConfirmPasswordReset exchanges a reset token for a new password.
func (c *Client) ConfirmPasswordReset(ctx context.Context, req ResetConfirm) error {
	resp, err := c.post(ctx, "/reset-password-confirm", req, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.backendFailure(resp, "password reset failed")
	}
	return nil
}

// =============================================================================
// PRIVILEGED OPERATIONS
// =============================================================================

// DeviceData fetches the latest telemetry samples. Privileged.
func (c *Client) DeviceData(ctx context.Context, credential string) ([]DeviceRecord, error) {
	resp, err := c.get(ctx, "/device-data", credential)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkPrivileged(resp, "device data fetch failed"); err != nil {
		return nil, err
	}

	var records []DeviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode device data", Cause: err}
	}
	return records, nil
}

// CreateShipment saves a new shipment. Privileged.
func (c *Client) CreateShipment(ctx context.Context, credential string, shipment Shipment) error {
	resp, err := c.post(ctx, "/shipment/new", shipment, credential)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkPrivileged(resp, "shipment creation failed")
}

// MyShipments fetches shipments created by the authenticated user. Privileged.
func (c *Client) MyShipments(ctx context.Context, credential string) ([]Shipment, error) {
	resp, err := c.get(ctx, "/shipment/my", credential)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkPrivileged(resp, "shipment list fetch failed"); err != nil {
		return nil, err
	}

	var shipments []Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipments); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode shipments", Cause: err}
	}
	return shipments, nil
}

// Account fetches the account details for the given email. Privileged.
func (c *Client) Account(ctx context.Context, credential, email string) (*Profile, error) {
	resp, err := c.get(ctx, "/account/me/"+url.PathEscape(email), credential)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkPrivileged(resp, "account fetch failed"); err != nil {
		return nil, err
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode account", Cause: err}
	}
	return &profile, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) post(ctx context.Context, path string, body any, credential string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string, credential string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}
		return nil, ErrUnreachable
	}
	return resp, nil
}

// checkPrivileged maps the status of a privileged response: 2xx passes,
// 401/403 is an auth rejection, everything else is a backend error.
// Consumes the body on failure.
func (c *Client) checkPrivileged(resp *http.Response, msg string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrAuthRejected
	default:
		return c.backendFailure(resp, msg)
	}
}

// backendFailure decodes the {"detail": ...} envelope into a typed error.
func (c *Client) backendFailure(resp *http.Response, msg string) error {
	var envelope backendError
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Detail != "" {
		return &ClientError{Type: ErrTypeBackend, Message: envelope.Detail}
	}
	return &ClientError{Type: ErrTypeBackend, Message: msg + ": " + resp.Status}
}
