package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Book struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   int    `json:"year"`
}

// BookInput is a write payload as received from a form or a JSON body.
// Nothing in it is trusted until ValidateBook accepts it.
type BookInput struct {
	Title  string  `json:"title" form:"title"`
	Author string  `json:"author" form:"author"`
	Genre  string  `json:"genre" form:"genre"`
	Year   RawYear `json:"year" form:"year"`
}

// RawYear holds the year exactly as the client sent it.
type RawYear string

// UnmarshalJSON accepts both a JSON number and a JSON string
func (ry *RawYear) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*ry = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*ry = RawYear(s)
		return nil
	}

	*ry = RawYear(strings.TrimSpace(string(b)))
	return nil
}

func (ry RawYear) String() string {
	return string(ry)
}
