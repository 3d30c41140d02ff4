// Package patients holds the single-patient detail view: lookup by IC
// number, an appointment history pane, and the update-profile flow.
package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/imedsys/appointment-gateway/internal/apiclient"
	"github.com/imedsys/appointment-gateway/internal/appointments"
	"github.com/imedsys/appointment-gateway/internal/toast"
)

// ErrNotFound is returned when the upstream rejects a lookup and the
// placeholder fallback is disabled.
var ErrNotFound = errors.New("patients: user not found")

// API is the client surface the view consumes.
type API interface {
	GetUser(ctx context.Context, icNo string) (apiclient.Result, error)
	UpdateUser(ctx context.Context, icNo string, fields map[string]any) (apiclient.Result, error)
}

// Profile is the rendered patient detail. Placeholder marks the
// development fallback so callers can badge or suppress it.
type Profile struct {
	User        appointments.User
	History     []appointments.Appointment
	Placeholder bool
}

// View loads and updates one patient's profile.
type View struct {
	api              API
	toasts           toast.Sink
	allowPlaceholder bool

	mu      sync.Mutex
	icNo    string
	profile Profile
	loaded  bool
}

// Option customizes a View.
type Option func(*View)

// WithoutPlaceholder disables the fallback profile; failed lookups then
// surface as errors instead of canned data.
func WithoutPlaceholder() Option {
	return func(v *View) { v.allowPlaceholder = false }
}

// NewView creates a view with the placeholder fallback enabled.
func NewView(api API, toasts toast.Sink, opts ...Option) *View {
	v := &View{api: api, toasts: toasts, allowPlaceholder: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the patient for icNo. A transport failure or a
// non-success payload falls back to the placeholder profile when
// enabled; otherwise the failure propagates.
func (v *View) Load(ctx context.Context, icNo string) error {
	icNo = strings.TrimSpace(icNo)

	res, err := v.api.GetUser(ctx, icNo)
	if err != nil || failed(res) {
		if v.allowPlaceholder {
			v.commit(icNo, placeholderProfile(icNo))
			return nil
		}
		if err != nil {
			return fmt.Errorf("patients: load %s: %w", icNo, err)
		}
		return ErrNotFound
	}

	payload := payloadObject(res.Data)
	profile := Profile{
		User:    appointments.UserFromRecord(payload),
		History: historyRows(payload),
	}
	if profile.User.ICNo == "" {
		profile.User.ICNo = icNo
	}
	v.commit(icNo, profile)
	return nil
}

// UpdateProfile applies fields locally first so the modal can close
// immediately, then pushes the change upstream and reconciles with an
// authoritative reload. Failures toast and reload to undo the
// optimistic mutation.
func (v *View) UpdateProfile(ctx context.Context, fields map[string]any) error {
	v.mu.Lock()
	if !v.loaded {
		v.mu.Unlock()
		return errors.New("patients: no profile loaded")
	}
	icNo := v.icNo
	applyFields(&v.profile.User, fields)
	v.mu.Unlock()

	res, err := v.api.UpdateUser(ctx, icNo, fields)
	if err != nil {
		v.show(toast.KindError, "Network error occurred. Check logs for details.")
		_ = v.Load(ctx, icNo)
		return fmt.Errorf("patients: update %s: %w", icNo, err)
	}
	if failed(res) {
		msg := res.ErrorMessage()
		if msg == "" {
			msg = "Server rejected the update"
		}
		v.show(toast.KindError, msg)
		return v.Load(ctx, icNo)
	}

	v.show(toast.KindSuccess, "Profile updated successfully")
	return v.Load(ctx, icNo)
}

// Profile returns a copy of the current profile.
func (v *View) Profile() Profile {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.profile
	p.History = make([]appointments.Appointment, len(v.profile.History))
	copy(p.History, v.profile.History)
	return p
}

func (v *View) commit(icNo string, p Profile) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.icNo = icNo
	v.profile = p
	v.loaded = true
}

func (v *View) show(kind toast.Kind, message string) {
	if v.toasts != nil {
		v.toasts.Show(kind, message)
	}
}

func applyFields(u *appointments.User, fields map[string]any) {
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	if ps, ok := fields["psNo"].(string); ok {
		u.PSNo = ps
	}
	if email, ok := fields["email"].(string); ok {
		u.Email = email
	}
}

func failed(res apiclient.Result) bool {
	if !res.OK {
		return true
	}
	obj, ok := res.Data.(map[string]any)
	if !ok {
		return true
	}
	if success, ok := obj["success"].(bool); ok && !success {
		return true
	}
	if _, has := obj["error"]; has {
		return true
	}
	return false
}

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

func historyRows(payload map[string]any) []appointments.Appointment {
	raw, ok := payload["history"].([]any)
	if !ok {
		if raw, ok = payload["appointments"].([]any); !ok {
			return nil
		}
	}
	rows := make([]appointments.Appointment, 0, len(raw))
	for _, item := range raw {
		if rec, ok := item.(map[string]any); ok {
			rows = append(rows, appointments.AppointmentFromRecord(rec))
		}
	}
	return rows
}

// placeholderProfile is the development fallback shown when the lookup
// fails. It is canned data, not a business rule.
func placeholderProfile(icNo string) Profile {
	if icNo == "" {
		icNo = "950212015431"
	}
	return Profile{
		Placeholder: true,
		User: appointments.User{
			Name: "Ali Bin Ahmad",
			ICNo: icNo,
			PSNo: "MS-55001",
		},
		History: []appointments.Appointment{
			{
				Name:               "Ali Bin Ahmad",
				ICNo:               icNo,
				PSNo:               "MS-55001",
				TCADate:            "2023-11-20",
				ScheduleSupplyDate: "2023-11-22",
				Status:             appointments.StatusCompleted,
			},
			{
				Name:               "Ali Bin Ahmad",
				ICNo:               icNo,
				PSNo:               "MS-55001",
				TCADate:            "2023-12-18",
				ScheduleSupplyDate: "2023-12-20",
				Status:             appointments.StatusPending,
			},
		},
	}
}
