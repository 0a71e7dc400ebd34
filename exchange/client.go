package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/ckassist"
)

// Interface compliance check.
var _ ckassist.TemplateService = (*Client)(nil)

// Client talks to the Template Exchange API. It holds no state besides its
// configuration and is safe to reuse across interactions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a [Client] for the service at baseURL authenticating with apiKey.
func New(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchTemplate retrieves the template of the given type for a session.
// An empty templateType means [ckassist.DefaultTemplateType].
func (c *Client) FetchTemplate(ctx context.Context, sessionID string, templateType ckassist.TemplateType) (*ckassist.Template, error) {
	if templateType == "" {
		templateType = ckassist.DefaultTemplateType
	}
	u := c.baseURL + templatesPath + "/" + url.PathEscape(sessionID) +
		"?" + url.Values{"type": {string(templateType)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return decodeTemplate(body)
	case http.StatusNotFound:
		return nil, fmt.Errorf("exchange: no %s template found for session %s: %w", templateType, sessionID, ckassist.ErrNotFound)
	case http.StatusUnauthorized:
		return nil, authError()
	default:
		return nil, &ckassist.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// UpsertTemplate creates a template or replaces the existing one with the same
// session and type. An empty Status means [ckassist.DefaultTemplateStatus].
func (c *Client) UpsertTemplate(ctx context.Context, in ckassist.UpsertTemplateInput) (*ckassist.Template, error) {
	status := in.Status
	if status == "" {
		status = ckassist.DefaultTemplateStatus
	}
	wire := apiUpsertRequest{
		SessionID: in.SessionID,
		Type:      string(in.Type),
		Content:   in.Content,
		Status:    status,
	}
	if in.Metadata != nil {
		wire.Metadata = &in.Metadata
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("exchange: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+templatesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return decodeTemplate(body)
	case http.StatusUnauthorized:
		return nil, authError()
	default:
		return nil, &ckassist.RemoteError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// do performs the round trip and reads the whole body.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("exchange: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	c.logger.Debug("template exchange request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"bytes", len(body),
	)
	return resp, body, nil
}

func decodeTemplate(body []byte) (*ckassist.Template, error) {
	var t ckassist.Template
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, fmt.Errorf("exchange: decode template: %w", err)
	}
	return &t, nil
}

func authError() error {
	return fmt.Errorf("exchange: check API key: %w", ckassist.ErrAuthenticationFailed)
}
