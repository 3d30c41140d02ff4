package appointments

import "strings"

// Status enumerates the lifecycle of an appointment row.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusNoShow    Status = "NO_SHOW"
)

// ParseStatus normalizes a raw status value. Unknown or empty values
// fall back to PENDING, matching what the upstream sheet defaults to.
func ParseStatus(raw string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusCancelled:
		return StatusCancelled
	case StatusNoShow:
		return StatusNoShow
	default:
		return StatusPending
	}
}

// User is a patient record. ICNo is the identity key and is always a
// string: IC numbers may carry leading zeros that must survive transit.
type User struct {
	Name  string `json:"name"`
	ICNo  string `json:"icNo"`
	PSNo  string `json:"psNo,omitempty"`
	Email string `json:"email,omitempty"`
}

// Appointment is one scheduled pharmacy collection for a patient.
type Appointment struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ICNo               string `json:"icNo"`
	PSNo               string `json:"psNo,omitempty"`
	TCADate            string `json:"tcaDate"`
	ScheduleSupplyDate string `json:"scheduleSupplyDate"`
	Status             Status `json:"status"`
	ReceivedDate       string `json:"receivedDate,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

// CreateNewUserDTO is the payload for registering a new patient together
// with their first appointment.
type CreateNewUserDTO struct {
	Name               string `json:"name"`
	ICNo               string `json:"icNo"`
	PSNo               string `json:"psNo,omitempty"`
	TCADate            string `json:"tcaDate"`
	ScheduleSupplyDate string `json:"scheduleSupplyDate,omitempty"`
	Status             string `json:"status,omitempty"`
}

// CreateFromExistingDTO schedules follow-up appointments for patients
// that already exist upstream.
type CreateFromExistingDTO struct {
	SelectedIDs        []string `json:"selectedIds"`
	TCADate            string   `json:"tcaDate,omitempty"`
	ScheduleSupplyDate string   `json:"scheduleSupplyDate,omitempty"`
	Status             string   `json:"status,omitempty"`
}

// DownloadFormDTO describes the batch form the upstream service generates.
type DownloadFormDTO struct {
	AppointmentIDs   []string `json:"appointmentIds,omitempty"`
	FromDate         string   `json:"fromDate,omitempty"`
	ToDate           string   `json:"toDate,omitempty"`
	IncludeColumns   []string `json:"includeColumns,omitempty"`
	FillBlankColumns []string `json:"fillBlankColumns"`
}
