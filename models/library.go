package models

import "context"

type Id string

type SortField string

const (
	SortNone     SortField = ""
	SortByTitle  SortField = "title"
	SortByAuthor SortField = "author"
)

// Query selects one page of books. A nil Year matches every record and a
// zero Limit returns everything after Skip.
type Query struct {
	Year  *int
	Sort  SortField
	Skip  int
	Limit int
	Page  int
}

// Library is the record store holding the catalog.
type Library interface {
	Find(ctx context.Context, query Query) ([]Book, error)
	Count(ctx context.Context, year *int) (int64, error)
	GetById(ctx context.Context, id Id) (*Book, error)
	Create(ctx context.Context, book *Book) (*Book, error)
	Update(ctx context.Context, id Id, book *Book) (*Book, error)
	Delete(ctx context.Context, id Id) error
	Stats(ctx context.Context) (*Stats, error)
	Close() error
}
