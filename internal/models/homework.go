package models

import "time"

// Homework is a single flattened homework item. Per-day batch containers are
// normalized into this shape at the store boundary; DateID references the
// container document the item arrived in.
type Homework struct {
	ID            string    `json:"id"`
	ClassName     string    `json:"class_name"`
	Subject       string    `json:"subject"`
	Details       []string  `json:"details"`
	EffectiveDate time.Time `json:"effective_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	DateID        string    `json:"date_id,omitempty"`
}
