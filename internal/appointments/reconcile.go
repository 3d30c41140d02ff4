package appointments

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// The upstream sheet is not schema-controlled by this service: depending on
// which deployment answered, list rows arrive either with camelCase field
// names or with the raw spreadsheet column headers. Reconciliation tries an
// ordered list of candidate keys per logical field and is deliberately a
// pure function so the mapping can be tested in isolation.

var (
	idKeys       = []string{"id", "ID", "Id"}
	nameKeys     = []string{"name", "Name"}
	icKeys       = []string{"icNo", "IC", "ic_no", "IC No"}
	psKeys       = []string{"psNo", "PS NO", "PS No", "ps_no"}
	tcaKeys      = []string{"tcaDate", "TCA Date", "tca_date"}
	supplyKeys   = []string{"scheduleSupplyDate", "Supply Date", "Schedule Supply Date", "supply_date"}
	statusKeys   = []string{"status", "Status"}
	receivedKeys = []string{"receivedDate", "Received Date", "received_date"}
	createdKeys  = []string{"createdAt", "Created At", "created_at"}
	emailKeys    = []string{"email", "Email"}
)

// AppointmentFromRecord maps one raw upstream row to an Appointment.
// Status defaults to PENDING and a missing id gets a fresh token so rows
// stay addressable client-side.
func AppointmentFromRecord(rec map[string]any) Appointment {
	a := Appointment{
		ID:                 stringField(rec, idKeys),
		Name:               stringField(rec, nameKeys),
		ICNo:               icField(rec),
		PSNo:               stringField(rec, psKeys),
		TCADate:            stringField(rec, tcaKeys),
		ScheduleSupplyDate: stringField(rec, supplyKeys),
		Status:             ParseStatus(stringField(rec, statusKeys)),
		ReceivedDate:       stringField(rec, receivedKeys),
		CreatedAt:          stringField(rec, createdKeys),
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return a
}

// UserFromRecord maps a get-user payload to a User.
func UserFromRecord(rec map[string]any) User {
	return User{
		Name:  stringField(rec, nameKeys),
		ICNo:  icField(rec),
		PSNo:  stringField(rec, psKeys),
		Email: stringField(rec, emailKeys),
	}
}

func icField(rec map[string]any) string {
	// The registration flow prefixes IC numbers with a literal quote to
	// defeat the sheet's numeric coercion; strip it again on the way back.
	return strings.TrimPrefix(stringField(rec, icKeys), "'")
}

func stringField(rec map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		if s := coerceString(v); s != "" {
			return s
		}
	}
	return ""
}

// coerceString renders scalar JSON values as text. Numeric values use a
// plain decimal form so an IC number that survived as a number does not
// come back in scientific notation.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
