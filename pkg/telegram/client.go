package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/runixer/botapi/pkg/hydrate"
)

// DefaultHost is the public Bot API server.
const DefaultHost = "api.telegram.org"

const redacted = "[REDACTED]"

// Client is a client for the Telegram Bot API.
//
// Two separate HTTP clients are used:
//  1. httpClient for short calls (sendMessage, sendChatAction, ...) with a
//     fixed 30s timeout and no keep-alive, so a stale pooled connection can
//     never stall a reply.
//  2. longPollingClient for getUpdates, without a client timeout. Its deadline
//     comes from the context (poll timeout + 10s) and it owns an isolated,
//     kept-alive connection pool.
//
// Sharing one pool made long polls hold connections that short calls were
// waiting for, which surfaced as sporadic "Client.Timeout exceeded while
// awaiting headers". HTTP/2 is disabled for the same reason.
type Client struct {
	token             string
	baseURL           string
	httpClient        *http.Client
	longPollingClient *http.Client
	logger            *slog.Logger
}

type clientOptions struct {
	host       string
	baseURL    string
	proxyURL   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

// WithHost talks to a different Bot API server over HTTPS, e.g. a self-hosted one.
func WithHost(host string) Option {
	return func(o *clientOptions) { o.host = host }
}

// WithBaseURL overrides scheme and host at once ("http://127.0.0.1:8081").
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) { o.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithProxyURL routes every request through the given proxy.
func WithProxyURL(proxyURL string) Option {
	return func(o *clientOptions) { o.proxyURL = proxyURL }
}

// WithHTTPClient replaces both internal HTTP clients, e.g. with httptest's.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// NewClient creates a new Telegram API client.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := clientOptions{host: DefaultHost}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.baseURL == "" {
		o.baseURL = "https://" + o.host
	}

	c := &Client{
		token:   token,
		baseURL: o.baseURL,
		logger:  o.logger.With("component", "telegram"),
	}

	if o.httpClient != nil {
		c.httpClient = o.httpClient
		c.longPollingClient = o.httpClient
		return c, nil
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 0,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		DisableKeepAlives:     true,
	}

	// Keep-alive matters here: otherwise the TLS handshake repeats every poll.
	longPollingTransport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		MaxIdleConns:          2,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 0,
		MaxIdleConnsPerHost:   1,
	}

	if o.proxyURL != "" {
		proxy, err := url.Parse(o.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
		longPollingTransport.Proxy = http.ProxyURL(proxy)
	}

	c.httpClient = &http.Client{Timeout: 30 * time.Second, Transport: transport}
	c.longPollingClient = &http.Client{Timeout: 0, Transport: longPollingTransport}
	return c, nil
}

// GetToken returns the bot token the client authenticates with.
func (c *Client) GetToken() string {
	return c.token
}

// BaseURL returns scheme and host of the Bot API server.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FileURL is the download location of a file_path returned by getFile.
func (c *Client) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *Client) redact(s string) string {
	if c.token == "" {
		return s
	}
	return strings.ReplaceAll(s, c.token, redacted)
}

// Call invokes a Bot API method and returns the envelope's result as a raw
// value (see hydrate.Decode). Parameters are sent form-encoded, or as
// multipart/form-data when any of them is an *InputFile.
func (c *Client) Call(ctx context.Context, method string, params Params) (any, error) {
	return c.do(ctx, c.httpClient, method, params)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method string, params Params) (any, error) {
	startTime := time.Now()
	fail := func(status, errType string, err error) (any, error) {
		recordRequestDuration(method, status, time.Since(startTime).Seconds())
		recordError(method, errType)
		return nil, err
	}

	body, contentType, err := params.encode()
	if err != nil {
		return fail(statusError, errorTypePrecondition, fmt.Errorf("failed to encode %s params: %w", method, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %s", c.redact(err.Error()))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(statusTimeout, errorTypeTimeout, fmt.Errorf("failed to perform %s request: %w", method, ctxErr))
		}
		errType, status := errorTypeNetwork, statusError
		if isTimeoutError(err) {
			errType, status = errorTypeTimeout, statusTimeout
		}
		return fail(status, errType, fmt.Errorf("failed to perform %s request: %s", method, c.redact(err.Error())))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(statusError, errorTypeNetwork, fmt.Errorf("failed to read %s response: %w", method, err))
	}

	if resp.StatusCode != http.StatusOK || reasonPhrase(resp) != "OK" {
		te := &TransportError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
		if env, ok := decodeEnvelope(data); ok && !env.Ok {
			te.Description = env.Description
			te.API = env.apiError(method)
		}
		c.logger.Debug("telegram transport error", "method", method, "status", resp.Status, "description", te.Description)
		return fail(statusError, errorTypeTransport, te)
	}

	raw, err := hydrate.Decode(data)
	if err != nil {
		return fail(statusError, errorTypeDecode, fmt.Errorf("failed to decode %s response: %w", method, err))
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return fail(statusError, errorTypeDecode, fmt.Errorf("failed to decode %s response: envelope is %T", method, raw))
	}
	if okFlag, _ := fields["ok"].(bool); !okFlag {
		env, _ := hydrate.Into[APIResponse](fields)
		return fail(statusError, errorTypeAPI, env.apiError(method))
	}

	recordRequestDuration(method, statusSuccess, time.Since(startTime).Seconds())
	return fields["result"], nil
}

// reasonPhrase extracts "OK" from a status line such as "200 OK".
func reasonPhrase(resp *http.Response) string {
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}

func decodeEnvelope(data []byte) (*APIResponse, bool) {
	raw, err := hydrate.Decode(data)
	if err != nil {
		return nil, false
	}
	env, err := hydrate.Into[APIResponse](raw)
	if err != nil {
		return nil, false
	}
	return env, true
}

// isTimeoutError reports whether err is a deadline or timeout.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

// GetUpdates receives incoming updates using long polling.
//
// The server holds the request open for up to req.Timeout seconds waiting
// for new updates. The call runs on longPollingClient and is bounded by a
// context deadline of req.Timeout + 10s to absorb network latency.
func (c *Client) GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error) {
	const method = "getUpdates"
	if err := req.validate(); err != nil {
		recordError(method, errorTypePrecondition)
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	setLongPollingActive(true)
	defer setLongPollingActive(false)

	timeout := time.Duration(req.Timeout+10) * time.Second
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.do(reqCtx, c.longPollingClient, method, Params(hydrate.Fields(req)))
	if err != nil {
		return nil, err
	}

	updates, err := hydrate.SliceOf[Update](raw)
	if err != nil {
		recordError(method, errorTypeDecode)
		return nil, fmt.Errorf("failed to hydrate updates: %w", err)
	}
	if len(updates) > 0 {
		recordLongPollingUpdates(len(updates))
	}
	return updates, nil
}
