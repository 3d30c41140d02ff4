package appointments

import "testing"

func TestAppointmentFromRecordCamelCase(t *testing.T) {
	rec := map[string]any{
		"id":                 "appt-1",
		"name":               "Ali Bin Ahmad",
		"icNo":               "950212015431",
		"psNo":               "MS-55001",
		"tcaDate":            "2023-11-20",
		"scheduleSupplyDate": "2023-11-27",
		"status":             "COMPLETED",
	}

	a := AppointmentFromRecord(rec)

	if a.ID != "appt-1" {
		t.Fatalf("ID = %q", a.ID)
	}
	if a.Name != "Ali Bin Ahmad" || a.ICNo != "950212015431" || a.PSNo != "MS-55001" {
		t.Fatalf("unexpected identity fields: %+v", a)
	}
	if a.TCADate != "2023-11-20" || a.ScheduleSupplyDate != "2023-11-27" {
		t.Fatalf("unexpected dates: %+v", a)
	}
	if a.Status != StatusCompleted {
		t.Fatalf("Status = %q", a.Status)
	}
}

func TestAppointmentFromRecordSheetHeaders(t *testing.T) {
	rec := map[string]any{
		"Name":        "Siti Nurhaliza",
		"IC":          "880504105222",
		"PS NO":       "MS-55002",
		"TCA Date":    "2023-11-21",
		"Supply Date": "2023-11-28",
		"Created At":  "2023-10-01",
	}

	a := AppointmentFromRecord(rec)

	if a.Name != "Siti Nurhaliza" || a.ICNo != "880504105222" || a.PSNo != "MS-55002" {
		t.Fatalf("unexpected identity fields: %+v", a)
	}
	if a.TCADate != "2023-11-21" || a.ScheduleSupplyDate != "2023-11-28" {
		t.Fatalf("unexpected dates: %+v", a)
	}
	if a.CreatedAt != "2023-10-01" {
		t.Fatalf("CreatedAt = %q", a.CreatedAt)
	}
}

func TestAppointmentFromRecordDefaults(t *testing.T) {
	a := AppointmentFromRecord(map[string]any{"name": "John Doe"})

	if a.Status != StatusPending {
		t.Fatalf("expected PENDING default, got %q", a.Status)
	}
	if a.ID == "" {
		t.Fatalf("expected generated id for record without one")
	}

	b := AppointmentFromRecord(map[string]any{"name": "John Doe"})
	if a.ID == b.ID {
		t.Fatalf("expected distinct generated ids, both %q", a.ID)
	}
}

func TestReconciliationIsDeterministic(t *testing.T) {
	rec := map[string]any{
		"id":     "appt-9",
		"Name":   "Lina Tan",
		"IC":     "921230055110",
		"status": "pending",
	}

	first := AppointmentFromRecord(rec)
	second := AppointmentFromRecord(rec)
	if first != second {
		t.Fatalf("mapping not deterministic: %+v vs %+v", first, second)
	}
}

func TestICNumberPreservedAsText(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"leading zeros kept", "010101015431", "010101015431"},
		{"quote prefix stripped", "'950212015431", "950212015431"},
		{"numeric coercion undone", float64(950212015431), "950212015431"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AppointmentFromRecord(map[string]any{"icNo": tt.raw})
			if a.ICNo != tt.want {
				t.Fatalf("ICNo = %q, want %q", a.ICNo, tt.want)
			}
		})
	}
}

func TestUserFromRecordBothShapes(t *testing.T) {
	sheet := UserFromRecord(map[string]any{
		"Name": "Ali Bin Ahmad", "IC": "950212015431", "PS NO": "MS-55001", "Email": "ali@example.com",
	})
	camel := UserFromRecord(map[string]any{
		"name": "Ali Bin Ahmad", "icNo": "950212015431", "psNo": "MS-55001", "email": "ali@example.com",
	})
	if sheet != camel {
		t.Fatalf("shapes diverge: %+v vs %+v", sheet, camel)
	}
	if sheet.Email != "ali@example.com" {
		t.Fatalf("Email = %q", sheet.Email)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"COMPLETED", StatusCompleted},
		{"cancelled", StatusCancelled},
		{" no_show ", StatusNoShow},
		{"PENDING", StatusPending},
		{"", StatusPending},
		{"garbage", StatusPending},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
