package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/imedsys/appointment-gateway/internal/apilog"
	"github.com/imedsys/appointment-gateway/internal/appointments"
)

// Recorder receives call log entries. *apilog.Buffer satisfies it.
type Recorder interface {
	Add(apilog.Entry)
}

// Result is the uniform outcome of every call. OK reflects the 2xx range;
// application-level failures never surface as errors, callers inspect OK.
// Data holds the parsed JSON body, or the raw text when parsing failed.
type Result struct {
	Data   any
	Raw    string
	Status int
	OK     bool
}

// ErrorMessage digs a human-readable failure message out of the response
// body. Falls back to empty when the server sent nothing usable.
func (r Result) ErrorMessage() string {
	obj, ok := r.Data.(map[string]any)
	if !ok {
		if r.Raw != "" && !r.OK {
			return r.Raw
		}
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Client is the uniform call surface over the proxy layer. It hides the
// URL shape from callers and optionally records every call into a log
// buffer with append-then-update semantics: the outgoing entry lands
// synchronously at call time, the incoming entry when the call settles.
type Client struct {
	baseURL    string
	httpClient *http.Client
	recorder   Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder enables call logging.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// New creates a client rooted at baseURL (no trailing slash).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListAppointments fetches one page of the appointment list.
func (c *Client) ListAppointments(ctx context.Context, page, pageSize int) (Result, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return c.do(ctx, http.MethodGet, "/api/appointments/list", q, nil, nil)
}

// GetUser fetches a single patient by IC number.
func (c *Client) GetUser(ctx context.Context, icNo string) (Result, error) {
	q := url.Values{}
	q.Set("icNo", icNo)
	return c.do(ctx, http.MethodGet, "/api/appointments/get-user", q, nil, nil)
}

// CreateNewUser registers a new patient with their first appointment.
func (c *Client) CreateNewUser(ctx context.Context, dto appointments.CreateNewUserDTO) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/appointments/create-new-user", nil, dto, nil)
}

// UpdateUser updates an existing patient. The call is PATCH-tunneled.
func (c *Client) UpdateUser(ctx context.Context, icNo string, fields map[string]any) (Result, error) {
	q := url.Values{}
	q.Set("icNo", icNo)
	headers := map[string]string{"X-HTTP-Method-Override": "PATCH"}
	return c.do(ctx, http.MethodPost, "/api/appointments/update-user", q, fields, headers)
}

// CreateFromExisting schedules follow-ups for already-registered patients.
func (c *Client) CreateFromExisting(ctx context.Context, dto appointments.CreateFromExistingDTO) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/appointments/create-from-existing", nil, dto, nil)
}

// DownloadForm requests the generated batch form.
func (c *Client) DownloadForm(ctx context.Context, dto appointments.DownloadFormDTO) (Result, error) {
	return c.do(ctx, http.MethodPost, "/api/appointments/download-form", nil, dto, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, headers map[string]string) (Result, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	var logged any
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("apiclient: marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
		// Log the decoded form, not the byte string, so the console shows
		// structured payloads.
		_ = json.Unmarshal(raw, &logged)
	}

	logID := uuid.NewString()
	c.record(apilog.Entry{
		ID:        logID + "-out",
		Method:    method,
		URL:       target,
		Direction: apilog.DirectionOutgoing,
		Body:      logged,
	})

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return Result{}, fmt.Errorf("apiclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(apilog.Entry{
			ID:        logID + "-err",
			Method:    method,
			URL:       target,
			Direction: apilog.DirectionIncoming,
			Body:      map[string]any{"error": err.Error()},
		})
		return Result{}, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("apiclient: read response: %w", err)
	}

	res := Result{
		Raw:    string(raw),
		Status: resp.StatusCode,
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	var parsed any
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr == nil {
		res.Data = parsed
	} else {
		res.Data = res.Raw
	}

	c.record(apilog.Entry{
		ID:        logID + "-in",
		Method:    method,
		URL:       target,
		Direction: apilog.DirectionIncoming,
		Status:    res.Status,
		Body:      res.Data,
	})
	return res, nil
}

func (c *Client) record(e apilog.Entry) {
	if c.recorder == nil {
		return
	}
	e.Timestamp = time.Now().UTC()
	c.recorder.Add(e)
}
