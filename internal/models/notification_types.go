package models

import (
	"encoding/json"
	"time"
)

// Notification is the model for the 'notifications' table
type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Link      *string   `json:"link,omitempty" db:"link"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DiseaseScan is one persisted diagnosis run. Results holds the JSON list
// of detected diseases.
type DiseaseScan struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Results   json.RawMessage `json:"results" db:"results"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Feedback is a user's rating of the diagnosis feature.
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
