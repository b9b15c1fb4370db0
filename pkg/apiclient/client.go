package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medikart/medikart-client/pkg/auth"
	"github.com/medikart/medikart-client/pkg/config"
	pkgerrors "github.com/medikart/medikart-client/pkg/errors"
	"github.com/medikart/medikart-client/pkg/logger"
	"github.com/medikart/medikart-client/pkg/types"
)

var (
	errBaseURLRequired = errors.New("api base url is required")
	errLoggerRequired  = errors.New("api client logger is required")
)

// Client is the single shared transport to the medicine platform API. It
// injects the bearer token from the configured provider into every request
// and maps response failures into the domain error taxonomy. Response
// interpretation beyond the error envelope is left to callers.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  auth.TokenProvider
	logger  *logger.Logger
	now     func() time.Time
}

// New constructs the shared client from a resolved API configuration.
func New(cfg config.APIConfig, tokens auth.TokenProvider, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimSpace(cfg.BaseURL())
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if tokens == nil {
		tokens = auth.NoneProvider()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logg,
		now:     time.Now,
	}, nil
}

// BaseURL returns the resolved base URL the client was constructed with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON issues an authenticated GET against path and decodes the JSON
// response body into out. A nil out discards the body.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		// Provider failures reject the request unchanged, they are
		// never downgraded to an anonymous call.
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "resolving bearer token")
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		if auth.Expired(token, c.now()) {
			c.logger.Warn(ctx, "stored bearer token is expired")
		}
	}

	ctx = c.logger.WithRequestID(ctx, requestID)
	c.logger.Debug(c.logger.WithField(ctx, "path", path), "api request")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error(ctx, "api request failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling medicine api")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapResponseError(ctx, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding api response")
	}
	return nil
}

func (c *Client) mapResponseError(ctx context.Context, resp *http.Response) error {
	code := pkgerrors.CodeForStatus(resp.StatusCode)
	message := http.StatusText(resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var envelope types.ErrorEnvelope
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
	}

	c.logger.Warn(c.logger.WithFields(ctx, map[string]any{
		"status": resp.StatusCode,
		"code":   string(code),
	}), "api responded with an error")

	return pkgerrors.New(code, message).WithDetails(map[string]any{
		"status": resp.StatusCode,
	})
}

// Message extracts the human-readable message carried by err: the typed
// domain message when present, the raw error text otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}
