package models

import "time"

// Announcement is a school notice shown on the announcements screen. Event
// fields are shared with EventItem because event notices reuse this shape.
type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sender      string    `json:"sender"`
	CreatedAt   time.Time `json:"created_at"`

	EventType string `json:"event_type,omitempty"`
	Venue     string `json:"venue,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// EventItem is a calendar event with the same immutability and
// created-descending ordering contract as Announcement.
type EventItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	EventType   string    `json:"event_type"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Venue       string    `json:"venue"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
