package dashboard

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/imedsys/appointment-gateway/internal/apiclient"
	"github.com/imedsys/appointment-gateway/internal/appointments"
	"github.com/imedsys/appointment-gateway/internal/toast"
)

// State is the dashboard's fetch lifecycle for the current page.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
)

const (
	defaultPageSize       = 20
	defaultSearchDebounce = 500 * time.Millisecond
	searchMinLength       = 3
)

var (
	// ErrFetchInFlight guards page transitions while a load is running.
	ErrFetchInFlight = errors.New("dashboard: fetch already in flight")
	// ErrPageBoundary is returned for next/prev at the respective edge.
	ErrPageBoundary = errors.New("dashboard: no page in that direction")
)

// API is the slice of the client surface the dashboard consumes.
type API interface {
	ListAppointments(ctx context.Context, page, pageSize int) (apiclient.Result, error)
	GetUser(ctx context.Context, icNo string) (apiclient.Result, error)
	CreateNewUser(ctx context.Context, dto appointments.CreateNewUserDTO) (apiclient.Result, error)
	UpdateUser(ctx context.Context, icNo string, fields map[string]any) (apiclient.Result, error)
}

// RegistrationForm carries the create/update modal fields.
type RegistrationForm struct {
	Name               string
	ICNo               string
	PSNo               string
	TCADate            string
	ScheduleSupplyDate string
}

// Controller owns the paginated appointment list and the create/update
// flows. Pages are 1-indexed. One fetch may be in flight at a time;
// transitions during a fetch or past a boundary are rejected.
type Controller struct {
	api      API
	toasts   toast.Sink
	pageSize int
	debounce time.Duration

	mu         sync.Mutex
	state      State
	page       int
	items      []appointments.Appointment
	totalPages int
	hasMore    bool
	loaded     bool

	searchGen   uint64
	searchTimer *time.Timer
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPageSize overrides the page size.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithSearchDebounce overrides the incremental-search debounce interval.
func WithSearchDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// NewController creates an idle controller positioned on page 1.
func NewController(api API, toasts toast.Sink, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		toasts:   toasts,
		pageSize: defaultPageSize,
		debounce: defaultSearchDebounce,
		state:    StateIdle,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the current page. Transport failures surface as an error
// toast and return the error; application-level list payloads of every
// observed shape are reconciled into Appointments.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateFetching {
		c.mu.Unlock()
		return ErrFetchInFlight
	}
	c.state = StateFetching
	page := c.page
	c.mu.Unlock()

	res, err := c.api.ListAppointments(ctx, page, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	if err != nil {
		c.show(toast.KindError, "Network error occurred. Check logs for details.")
		return err
	}

	records, totalPages := extractRecords(res.Data, c.pageSize)
	items := make([]appointments.Appointment, 0, len(records))
	for _, rec := range records {
		items = append(items, appointments.AppointmentFromRecord(rec))
	}

	c.items = items
	c.totalPages = totalPages
	c.loaded = true
	if totalPages > 0 {
		c.hasMore = page < totalPages
	} else {
		// Without a reported total, a full page implies more may exist.
		c.hasMore = len(items) == c.pageSize
	}
	return nil
}

// NextPage advances one page and loads it.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.turnPage(ctx, +1)
}

// PrevPage steps back one page and loads it.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.turnPage(ctx, -1)
}

func (c *Controller) turnPage(ctx context.Context, delta int) error {
	c.mu.Lock()
	if c.state == StateFetching {
		c.mu.Unlock()
		return ErrFetchInFlight
	}
	if delta > 0 && !c.hasMore {
		c.mu.Unlock()
		return ErrPageBoundary
	}
	if delta < 0 && c.page <= 1 {
		c.mu.Unlock()
		return ErrPageBoundary
	}
	c.page += delta
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		c.mu.Lock()
		c.page -= delta
		c.mu.Unlock()
		return err
	}
	return nil
}

// SubmitNewRegistration registers a new patient. The IC number is
// trimmed and quote-prefixed before transmission so the sheet keeps it
// as text; on success the list resets to page 1 and reloads.
func (c *Controller) SubmitNewRegistration(ctx context.Context, form RegistrationForm) error {
	icNo := strings.TrimSpace(form.ICNo)
	dto := appointments.CreateNewUserDTO{
		Name:               strings.TrimSpace(form.Name),
		ICNo:               "'" + icNo,
		PSNo:               strings.TrimSpace(form.PSNo),
		TCADate:            form.TCADate,
		ScheduleSupplyDate: form.ScheduleSupplyDate,
	}

	res, err := c.api.CreateNewUser(ctx, dto)
	if err != nil {
		c.show(toast.KindError, "Network error occurred. Check logs for details.")
		return err
	}
	if rejected(res) {
		c.show(toast.KindError, failureMessage(res))
		return nil
	}

	c.show(toast.KindSuccess, "Appointment created successfully")
	c.mu.Lock()
	c.page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// SubmitExistingUpdate updates a registered patient's record. The IC
// number is trimmed but not quote-prefixed: the row already exists
// upstream, so no coercion defense is needed.
func (c *Controller) SubmitExistingUpdate(ctx context.Context, icNo string, fields map[string]any) error {
	res, err := c.api.UpdateUser(ctx, strings.TrimSpace(icNo), fields)
	if err != nil {
		c.show(toast.KindError, "Network error occurred. Check logs for details.")
		return err
	}
	if rejected(res) {
		c.show(toast.KindError, failureMessage(res))
		return nil
	}

	c.show(toast.KindSuccess, "Appointment updated successfully")
	c.mu.Lock()
	c.page = 1
	c.mu.Unlock()
	return c.Load(ctx)
}

// SearchIC schedules a debounced lookup for the typed IC number. Only
// the latest pending timer fires, and each lookup carries a generation
// token: a response from a superseded lookup is dropped instead of
// overwriting a newer one. Inputs shorter than three characters cancel
// any pending lookup. The deliver callback runs on the timer goroutine
// with found=false when the lookup failed or was rejected.
func (c *Controller) SearchIC(ctx context.Context, input string, deliver func(user appointments.User, found bool)) {
	input = strings.TrimSpace(input)

	c.mu.Lock()
	c.searchGen++
	gen := c.searchGen
	if c.searchTimer != nil {
		c.searchTimer.Stop()
		c.searchTimer = nil
	}
	if len(input) < searchMinLength {
		c.mu.Unlock()
		return
	}
	c.searchTimer = time.AfterFunc(c.debounce, func() {
		c.runSearch(ctx, gen, input, deliver)
	})
	c.mu.Unlock()
}

func (c *Controller) runSearch(ctx context.Context, gen uint64, icNo string, deliver func(appointments.User, bool)) {
	res, err := c.api.GetUser(ctx, icNo)

	c.mu.Lock()
	stale := gen != c.searchGen
	c.mu.Unlock()
	if stale {
		return
	}

	if err != nil || rejected(res) {
		deliver(appointments.User{}, false)
		return
	}
	deliver(appointments.UserFromRecord(payloadObject(res.Data)), true)
}

// State reports the current fetch state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Page reports the current 1-indexed page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// HasMore reports whether a next page exists or is inferred to exist.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Empty reports whether the last load succeeded with zero rows.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded && len(c.items) == 0
}

// Appointments returns a copy of the current page's rows.
func (c *Controller) Appointments() []appointments.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]appointments.Appointment, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Controller) show(kind toast.Kind, message string) {
	if c.toasts != nil {
		c.toasts.Show(kind, message)
	}
}

// rejected reports an application-level failure: a non-2xx status, an
// explicit success=false, or an error field despite a 200.
func rejected(res apiclient.Result) bool {
	if !res.OK {
		return true
	}
	obj, ok := res.Data.(map[string]any)
	if !ok {
		return false
	}
	if success, ok := obj["success"].(bool); ok && !success {
		return true
	}
	if _, has := obj["error"]; has {
		return true
	}
	return false
}

func failureMessage(res apiclient.Result) string {
	if msg := res.ErrorMessage(); msg != "" {
		return msg
	}
	return "Server rejected the request"
}

// payloadObject unwraps the optional {data: {...}} envelope.
func payloadObject(data any) map[string]any {
	obj, ok := data.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	if inner, ok := obj["data"].(map[string]any); ok {
		return inner
	}
	return obj
}

// extractRecords pulls list rows and any reported page total out of the
// upstream payload, which is either a bare array or a {data, totalPages,
// totalRecords} envelope.
func extractRecords(data any, pageSize int) ([]map[string]any, int) {
	raw := data
	totalPages := 0
	if obj, ok := data.(map[string]any); ok {
		raw = obj["data"]
		if tp, ok := obj["totalPages"].(float64); ok && tp > 0 {
			totalPages = int(tp)
		} else if tr, ok := obj["totalRecords"].(float64); ok && tr > 0 && pageSize > 0 {
			totalPages = int(math.Ceil(tr / float64(pageSize)))
		}
	}

	arr, ok := raw.([]any)
	if !ok {
		return nil, totalPages
	}
	records := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, totalPages
}
