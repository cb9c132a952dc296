package models

import "time"

// AttendanceStatus represents the status of a student's day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "Present"
	AttendanceStatusAbsent  AttendanceStatus = "Absent"
	AttendanceStatusHalfday AttendanceStatus = "Halfday"
	// AttendanceStatusNotMarked is a presentation default for days without a
	// record. It is never written to the store.
	AttendanceStatusNotMarked AttendanceStatus = "Not Marked"
)

// AttendanceRecord is one (student, date) pair. Morning and Afternoon carry
// the half-day markers used when no explicit status was recorded.
type AttendanceRecord struct {
	StudentID string           `json:"student_id"`
	ClassName string           `json:"class_name"`
	Date      time.Time        `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Morning   bool             `json:"morning"`
	Afternoon bool             `json:"afternoon"`
}

// DeriveAttendanceStatus resolves the effective status of a record. An
// explicit status always wins; otherwise both half-day markers mean Present,
// exactly one means Halfday and neither means Absent.
func DeriveAttendanceStatus(explicit string, morning, afternoon bool) AttendanceStatus {
	switch AttendanceStatus(explicit) {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusHalfday:
		return AttendanceStatus(explicit)
	}
	switch {
	case morning && afternoon:
		return AttendanceStatusPresent
	case morning || afternoon:
		return AttendanceStatusHalfday
	default:
		return AttendanceStatusAbsent
	}
}
