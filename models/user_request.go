package models

import "time"

// UserRequest is one entry of a user's activity journal.
type UserRequest struct {
	Method string    `json:"method"`
	Route  string    `json:"route"`
	Status int       `json:"status"`
	At     time.Time `json:"at"`
}
