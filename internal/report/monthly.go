// Package report aggregates registrations into the monthly activity
// chart: per-day counts, a readable Y-axis ceiling, and the peak day.
package report

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/imedsys/appointment-gateway/internal/apiclient"
	"github.com/imedsys/appointment-gateway/internal/appointments"
)

// fetchCap bounds how many records the report pulls in one shot.
const fetchCap = 200

// dateLayouts are tried in order when parsing record timestamps.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// DayCount is one histogram bucket. Day is 1-indexed.
type DayCount struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// Monthly is the aggregation for one calendar month.
type Monthly struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Total     int        `json:"total"`
	Days      []DayCount `json:"days"`
	MaxCount  int        `json:"maxCount"`
	YAxisMax  int        `json:"yAxisMax"`
	PeakDay   int        `json:"peakDay"`
	PeakLabel string     `json:"peakLabel"`
}

// Compute buckets records by the day-of-month of their creation date.
// Records outside the month or with an unparseable date are excluded.
// The Y-axis ceiling is 20% above the peak, never below 5, so small
// months still chart legibly. Ties for the peak resolve to the lowest
// day; an all-zero month reports day 0 with label "N/A".
func Compute(records []appointments.Appointment, year int, month time.Month) Monthly {
	days := daysInMonth(year, month)
	buckets := make([]DayCount, days)
	for i := range buckets {
		buckets[i].Day = i + 1
	}

	total := 0
	for _, rec := range records {
		ts, ok := parseDate(rec.CreatedAt)
		if !ok {
			continue
		}
		if ts.Year() != year || ts.Month() != month {
			continue
		}
		buckets[ts.Day()-1].Count++
		total++
	}

	maxCount := 0
	peakDay := 0
	for _, b := range buckets {
		if b.Count > maxCount {
			maxCount = b.Count
			peakDay = b.Day
		}
	}

	label := "N/A"
	if peakDay > 0 {
		label = fmt.Sprintf("Day %d (%d pts)", peakDay, maxCount)
	}

	return Monthly{
		Year:      year,
		Month:     month,
		Total:     total,
		Days:      buckets,
		MaxCount:  maxCount,
		YAxisMax:  yAxisMax(maxCount),
		PeakDay:   peakDay,
		PeakLabel: label,
	}
}

// API is the client surface the report loader consumes.
type API interface {
	ListAppointments(ctx context.Context, page, pageSize int) (apiclient.Result, error)
}

// Load fetches one capped page of registrations and aggregates it for
// the given month.
func Load(ctx context.Context, api API, year int, month time.Month) (Monthly, error) {
	res, err := api.ListAppointments(ctx, 1, fetchCap)
	if err != nil {
		return Monthly{}, fmt.Errorf("report: fetch records: %w", err)
	}
	if !res.OK {
		return Monthly{}, fmt.Errorf("report: upstream status %d: %s", res.Status, res.ErrorMessage())
	}

	records := recordsFromPayload(res.Data)
	appts := make([]appointments.Appointment, 0, len(records))
	for _, rec := range records {
		appt := appointments.AppointmentFromRecord(rec)
		// Older sheet rows have no creation timestamp; their TCA date
		// is the best available signal for when they were registered.
		if appt.CreatedAt == "" {
			appt.CreatedAt = appt.TCADate
		}
		appts = append(appts, appt)
	}
	return Compute(appts, year, month), nil
}

func yAxisMax(peak int) int {
	ceiling := int(math.Ceil(float64(peak) * 1.2))
	if ceiling < 5 {
		return 5
	}
	return ceiling
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func recordsFromPayload(data any) []map[string]any {
	raw := data
	if obj, ok := data.(map[string]any); ok {
		raw = obj["data"]
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil
	}
	records := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records
}
