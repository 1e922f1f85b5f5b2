// Package trigger asks a GIF service to build GIFs for a project.
//
// A call to CreateGIF posts {"projectPath": ...} to /create_gif and returns
// immediately. The exchange runs on its own goroutine and reports exactly one
// Result on the returned channel. When the exchange completes with status
// 200 the client logs SuccessMessage on its logger; every other outcome is
// silent on the logger and only visible through the Result.
package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"

	"github.com/sidewinder5675/tm-photo-tools/pkg/api"
)

// SuccessMessage is logged once per exchange that completes with status 200.
const SuccessMessage = "GIF creation successful!"

// Kind tags a Result.
type Kind int

// Result kinds.
const (
	Success Kind = iota + 1
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Result is the outcome of one CreateGIF call.
type Result struct {
	Kind       Kind
	StatusCode int   // 0 when no response was received
	Err        error // failure reason, nil on Success
}

// OK reports whether the exchange completed with status 200.
func (r Result) OK() bool {
	return r.Kind == Success
}

// StatusError is the failure reason for a completed exchange whose status
// was not 200.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("create gif: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Client posts GIF creation requests to one service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	observe    func(State)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the sink for the success line.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStateObserver registers fn to receive every state change of every
// exchange. fn runs on the exchange goroutine and must not block.
func WithStateObserver(fn func(State)) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates a client for the service at baseURL, e.g.
// "http://192.168.1.250:5003". The default HTTP client has no timeout.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + api.CreateGIFPath,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// CreateGIF starts one request for projectPath and returns without waiting.
// The channel receives exactly one Result and is then closed. projectPath is
// sent verbatim.
func (c *Client) CreateGIF(ctx context.Context, projectPath string) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- c.exchange(ctx, projectPath)
	}()
	return results
}

// Trigger is the fire-and-forget form of CreateGIF.
func (c *Client) Trigger(projectPath string) {
	_ = c.CreateGIF(context.Background(), projectPath)
}

func (c *Client) exchange(ctx context.Context, projectPath string) Result {
	x := &lifecycle{client: c}

	body, err := json.Marshal(api.CreateGIFRequest{ProjectPath: projectPath})
	if err != nil {
		return Result{Kind: Failure, Err: fmt.Errorf("create gif: encode body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Kind: Failure, Err: fmt.Errorf("create gif: %w", err)}
	}
	req.Header.Set(api.HeaderContentType, api.ContentTypeJSON)
	x.advance(StateOpened, 0)

	trace := &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) {
			x.advance(StateSent, 0)
		},
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		x.advance(StateDone, 0)
		return Result{Kind: Failure, Err: fmt.Errorf("create gif: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	x.advance(StateHeadersReceived, resp.StatusCode)
	x.advance(StateLoading, resp.StatusCode)

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		x.advance(StateDone, 0)
		return Result{Kind: Failure, StatusCode: resp.StatusCode, Err: fmt.Errorf("create gif: read response: %w", err)}
	}

	x.advance(StateDone, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return Result{Kind: Failure, StatusCode: resp.StatusCode, Err: &StatusError{Code: resp.StatusCode}}
	}
	return Result{Kind: Success, StatusCode: resp.StatusCode}
}

// handleStateChange is the completion handler. It runs on every state
// change and logs only for Done with status 200.
func (c *Client) handleStateChange(state State, status int) {
	if state == StateDone && status == http.StatusOK {
		c.logger.Info(SuccessMessage)
	}
}

// lifecycle tracks the state of one exchange. States only move forward;
// the transport may report Sent after the response headers arrived, and
// such late transitions are dropped.
type lifecycle struct {
	mu     sync.Mutex
	client *Client
	state  State
}

func (l *lifecycle) advance(state State, status int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state <= l.state {
		return
	}
	l.state = state

	if l.client.observe != nil {
		l.client.observe(state)
	}
	l.client.handleStateChange(state, status)
}
