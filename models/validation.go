package models

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinYear = 1500
	MaxYear = 2024
)

// ValidateYear parses raw as a base 10 integer and checks it against
// [MinYear, MaxYear].
func ValidateYear(raw string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidYear
	}

	if year < MinYear || year > MaxYear {
		return 0, ErrInvalidYear
	}

	return year, nil
}

// ValidateBook checks every field of in and returns the book to persist.
// The returned book has no ID.
func ValidateBook(in BookInput) (Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Book{}, fmt.Errorf("%w: title", ErrMissingField)
	}

	author := strings.TrimSpace(in.Author)
	if author == "" {
		return Book{}, fmt.Errorf("%w: author", ErrMissingField)
	}

	year, err := ValidateYear(in.Year.String())
	if err != nil {
		return Book{}, err
	}

	return Book{
		Title:  title,
		Author: author,
		Genre:  strings.TrimSpace(in.Genre),
		Year:   year,
	}, nil
}
