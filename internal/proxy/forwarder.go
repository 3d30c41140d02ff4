package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/imedsys/appointment-gateway/internal/apilog"
	"github.com/imedsys/appointment-gateway/internal/observability/metrics"
	"github.com/imedsys/appointment-gateway/pkg/logging"
)

// Actions understood by the upstream script endpoint.
const (
	ActionList               = "list"
	ActionGetUser            = "get-user"
	ActionCreateNewUser      = "create-new-user"
	ActionUpdateUser         = "update-user"
	ActionCreateFromExisting = "create-from-existing"
	ActionDownloadForm       = "download-form"
)

// MethodOverrideHeader tunnels PATCH through POST; the upstream service
// has no native PATCH support.
const MethodOverrideHeader = "X-HTTP-Method-Override"

const defaultTimeout = 30 * time.Second

// reservedParams are query keys the forwarder sets itself. Pass-through
// parameters with these names are dropped so the outbound URL never
// carries duplicate or conflicting values.
var reservedParams = map[string]struct{}{
	"action": {},
	"key":    {},
	"icNo":   {},
}

// Request describes one forward to the upstream appointment service.
type Request struct {
	Action      string
	ICNo        string
	Passthrough url.Values
	// Body, when non-nil, is forwarded as JSON via POST; a nil body means
	// the upstream call is a plain GET.
	Body map[string]any
	// PatchOverride tunnels the call as a PATCH: the override header is
	// set and _method is duplicated into the body.
	PatchOverride bool
}

// Result is the upstream response, parsed as JSON when possible.
type Result struct {
	Status int
	IsJSON bool
	JSON   any
	Text   string
}

// Recorder receives developer-console entries for each forward.
// *apilog.Buffer satisfies it.
type Recorder interface {
	Add(apilog.Entry)
}

// Forwarder relays requests to the upstream appointment service. Each
// call is a single best-effort forward: no retries, no caching.
type Forwarder struct {
	upstreamURL string
	apiKey      string
	httpClient  *http.Client
	logger      *logging.Logger
	metrics     *metrics.ProxyMetrics
	recorder    Recorder
}

// NewForwarder creates a forwarder for the given upstream endpoint.
// The API key, when set, is injected server-side into the outbound query
// string and is never read from the incoming request.
func NewForwarder(upstreamURL, apiKey string, timeout time.Duration, logger *logging.Logger, m *metrics.ProxyMetrics) *Forwarder {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Forwarder{
		upstreamURL: upstreamURL,
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		metrics:     m,
	}
}

// WithRecorder records each forward into the developer console: one
// outgoing entry before the upstream call, one incoming (or error)
// entry when it settles. The API key is redacted from logged URLs.
func (f *Forwarder) WithRecorder(rec Recorder) *Forwarder {
	f.recorder = rec
	return f
}

// Forward performs one upstream call. A non-nil error means the call
// never produced a response (network failure); any upstream response,
// including error pages, comes back as a Result with the upstream status.
func (f *Forwarder) Forward(ctx context.Context, freq Request) (*Result, error) {
	params := url.Values{}
	for key, values := range freq.Passthrough {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		for _, v := range values {
			params.Add(key, v)
		}
	}
	if freq.ICNo != "" {
		params.Set("icNo", freq.ICNo)
	}
	params.Set("action", freq.Action)
	if f.apiKey != "" {
		params.Set("key", f.apiKey)
	}

	method := http.MethodGet
	var bodyReader io.Reader
	var outBody map[string]any
	if freq.Body != nil {
		method = http.MethodPost

		// Duplicate routing fields into the body for deployments that
		// read action from the payload instead of the query string.
		outBody = make(map[string]any, len(freq.Body)+3)
		for k, v := range freq.Body {
			outBody[k] = v
		}
		outBody["action"] = freq.Action
		if freq.ICNo != "" {
			outBody["icNo"] = freq.ICNo
		}
		if freq.PatchOverride {
			outBody["_method"] = "PATCH"
		}

		raw, err := json.Marshal(outBody)
		if err != nil {
			return nil, fmt.Errorf("proxy: marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.upstreamURL+"?"+params.Encode(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("proxy: create request: %w", err)
	}
	if freq.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if freq.PatchOverride {
		req.Header.Set(MethodOverrideHeader, "PATCH")
	}

	callID, logURL := f.recordOutgoing(method, params, outBody)

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	f.metrics.ObserveLatency(freq.Action, time.Since(start).Seconds())
	if err != nil {
		f.metrics.ObserveForward(freq.Action, "error")
		f.logger.Error("upstream call failed", "action", freq.Action, "error", err)
		f.record(apilog.Entry{
			ID:        callID + "-err",
			Method:    method,
			URL:       logURL,
			Direction: apilog.DirectionIncoming,
			Body:      map[string]any{"error": err.Error()},
		})
		return nil, fmt.Errorf("proxy: upstream call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		f.metrics.ObserveForward(freq.Action, "error")
		return nil, fmt.Errorf("proxy: read upstream response: %w", err)
	}
	f.metrics.ObserveForward(freq.Action, "ok")

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	res := &Result{Status: status, Text: string(raw)}
	// Never trust the upstream content type: read as text first and keep
	// the raw form when the payload is not JSON (Apps Script error pages
	// arrive as HTML with arbitrary statuses).
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		res.IsJSON = true
		res.JSON = parsed
	}

	var inBody any = res.Text
	if res.IsJSON {
		inBody = res.JSON
	}
	f.record(apilog.Entry{
		ID:        callID + "-in",
		Method:    method,
		URL:       logURL,
		Direction: apilog.DirectionIncoming,
		Status:    status,
		Body:      inBody,
	})

	f.logger.Debug("forwarded to upstream",
		"action", freq.Action,
		"method", method,
		"status", status,
		"json", res.IsJSON,
	)
	return res, nil
}

// recordOutgoing logs the outbound half of a forward and returns the
// call id and the redacted URL for the matching inbound entry.
func (f *Forwarder) recordOutgoing(method string, params url.Values, body map[string]any) (string, string) {
	if f.recorder == nil {
		return "", ""
	}
	logParams := url.Values{}
	for k, vs := range params {
		logParams[k] = vs
	}
	if logParams.Has("key") {
		logParams.Set("key", "REDACTED")
	}
	logURL := f.upstreamURL + "?" + logParams.Encode()

	callID := uuid.NewString()
	f.record(apilog.Entry{
		ID:        callID + "-out",
		Method:    method,
		URL:       logURL,
		Direction: apilog.DirectionOutgoing,
		Body:      body,
	})
	return callID, logURL
}

func (f *Forwarder) record(e apilog.Entry) {
	if f.recorder == nil {
		return
	}
	f.recorder.Add(e)
}
