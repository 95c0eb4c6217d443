package models

type Stats struct {
	NumberOfBooks   int64 `json:"number_of_books"`
	NumberOfAuthors int64 `json:"number_of_authors"`
}
