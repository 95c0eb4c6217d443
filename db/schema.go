package db

const booksTable = "books"

const (
	colId     = "id"
	colTitle  = "title"
	colAuthor = "author"
	colGenre  = "genre"
	colYear   = "year"
)

// booksSchema is valid for both sqlite and postgres.
const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
    id     TEXT PRIMARY KEY,
    title  TEXT NOT NULL,
    author TEXT NOT NULL,
    genre  TEXT NOT NULL DEFAULT '',
    year   INTEGER NOT NULL CHECK (year BETWEEN 1500 AND 2024)
);
`
