package proxy

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/imedsys/appointment-gateway/pkg/logging"
)

// Handler exposes the proxy operations over HTTP. One method per logical
// operation, each validating the incoming method, normalizing action and
// identity parameters, and relaying the upstream response unchanged.
type Handler struct {
	fwd    *Forwarder
	logger *logging.Logger
}

// NewHandler creates a proxy HTTP handler.
func NewHandler(fwd *Forwarder, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{fwd: fwd, logger: logger}
}

// List handles GET /api/appointments/list. Pagination parameters and any
// other caller-supplied query values pass through to the upstream.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}
	res, err := h.fwd.Forward(r.Context(), Request{
		Action:      ActionList,
		Passthrough: r.URL.Query(),
	})
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.relay(w, res)
}

// GetUser handles GET /api/get-user and /api/appointments/get-user.
// A missing icNo is rejected before any upstream call is made.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodGet) {
		return
	}
	icNo := strings.TrimSpace(r.URL.Query().Get("icNo"))
	if icNo == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "icNo parameter is required"})
		return
	}
	res, err := h.fwd.Forward(r.Context(), Request{
		Action:      ActionGetUser,
		ICNo:        icNo,
		Passthrough: r.URL.Query(),
	})
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.relay(w, res)
}

// CreateNewUser handles POST /api/appointments/create-new-user.
func (h *Handler) CreateNewUser(w http.ResponseWriter, r *http.Request) {
	h.forwardMutation(w, r, ActionCreateNewUser, false)
}

// UpdateUser handles POST /api/appointments/update-user. Updates are
// always PATCH-tunneled on the wire.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	h.forwardMutation(w, r, ActionUpdateUser, true)
}

// CreateFromExisting handles POST /api/appointments/create-from-existing.
func (h *Handler) CreateFromExisting(w http.ResponseWriter, r *http.Request) {
	h.forwardMutation(w, r, ActionCreateFromExisting, false)
}

// DownloadForm handles POST /api/appointments/download-form.
func (h *Handler) DownloadForm(w http.ResponseWriter, r *http.Request) {
	h.forwardMutation(w, r, ActionDownloadForm, false)
}

// CreateUserLegacy handles POST /api/create-user, the combined handler
// older dashboard builds still call. The action is inferred from the
// query string, the body, or the method-override header; both override
// conventions (header and _method body field) are honored.
func (h *Handler) CreateUserLegacy(w http.ResponseWriter, r *http.Request) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	wantsPatch := strings.EqualFold(r.Header.Get(MethodOverrideHeader), "PATCH") ||
		stringValue(body["_method"]) == "PATCH"

	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if action == "" {
		action = stringValue(body["action"])
	}
	if action == "" {
		if wantsPatch {
			action = ActionUpdateUser
		} else {
			action = ActionCreateNewUser
		}
	}

	icNo := strings.TrimSpace(r.URL.Query().Get("icNo"))
	if icNo == "" {
		icNo = stringValue(body["icNo"])
	}

	res, err := h.fwd.Forward(r.Context(), Request{
		Action:        action,
		ICNo:          icNo,
		Passthrough:   r.URL.Query(),
		Body:          body,
		PatchOverride: wantsPatch,
	})
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.relay(w, res)
}

func (h *Handler) forwardMutation(w http.ResponseWriter, r *http.Request, action string, patch bool) {
	if !h.requireMethod(w, r, http.MethodPost) {
		return
	}
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}

	icNo := strings.TrimSpace(r.URL.Query().Get("icNo"))
	if icNo == "" {
		icNo = stringValue(body["icNo"])
	}

	res, err := h.fwd.Forward(r.Context(), Request{
		Action:        action,
		ICNo:          icNo,
		Passthrough:   r.URL.Query(),
		Body:          body,
		PatchOverride: patch || stringValue(body["_method"]) == "PATCH" || strings.EqualFold(r.Header.Get(MethodOverrideHeader), "PATCH"),
	})
	if err != nil {
		h.upstreamFailure(w, err)
		return
	}
	h.relay(w, res)
}

func (h *Handler) requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	return false
}

// decodeBody reads the request body as a JSON object. An empty body is
// treated as an empty object so bare POSTs still forward.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return nil, false
	}
	return body, true
}

func (h *Handler) upstreamFailure(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": err.Error(),
	})
}

// relay mirrors the upstream response: parsed JSON when the payload was
// JSON, otherwise the raw text with the same status.
func (h *Handler) relay(w http.ResponseWriter, res *Result) {
	if res.IsJSON {
		writeJSON(w, res.Status, res.JSON)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(res.Status)
	_, _ = io.WriteString(w, res.Text)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// stringValue renders a decoded JSON scalar as trimmed text. IC numbers
// that arrive as JSON numbers keep their plain decimal form.
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
