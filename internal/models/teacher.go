package models

// Teacher is the minimal author record referenced by gallery posts.
type Teacher struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject,omitempty"`
}
