package db

import (
	"context"
	"database/sql"
	"errors"

	"bookcatalog/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// SQLLibrary stores the catalog in a single relational table. Statements
// are built with goqu for the configured dialect and run through sqlx.
type SQLLibrary struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

type bookRow struct {
	Id     string `db:"id"`
	Title  string `db:"title"`
	Author string `db:"author"`
	Genre  string `db:"genre"`
	Year   int    `db:"year"`
}

func (row bookRow) book() models.Book {
	return models.Book{ID: row.Id, Title: row.Title, Author: row.Author, Genre: row.Genre, Year: row.Year}
}

// NewSQLLibrary creates the books table when needed.
func NewSQLLibrary(ctx context.Context, db *sqlx.DB, dialect string) (*SQLLibrary, error) {
	if _, err := db.ExecContext(ctx, booksSchema); err != nil {
		return nil, models.NewStoreError("create schema", err)
	}

	return &SQLLibrary{db: db, builder: goqu.Dialect(dialect)}, nil
}

func (library *SQLLibrary) Find(ctx context.Context, query models.Query) ([]models.Book, error) {
	selectStmt := library.builder.
		From(booksTable).
		Prepared(true).
		Select(colId, colTitle, colAuthor, colGenre, colYear)

	// sqlite rejects OFFSET without LIMIT, so a skip only applies to a bounded page.
	if query.Limit > 0 {
		selectStmt = selectStmt.Limit(uint(query.Limit)).Offset(uint(max(query.Skip, 0)))
	}

	if query.Year != nil {
		selectStmt = selectStmt.Where(goqu.C(colYear).Eq(*query.Year))
	}

	switch query.Sort {
	case models.SortByTitle:
		selectStmt = selectStmt.Order(goqu.I(colTitle).Asc())
	case models.SortByAuthor:
		selectStmt = selectStmt.Order(goqu.I(colAuthor).Asc())
	}

	sqlQuery, args, err := selectStmt.ToSQL()
	if err != nil {
		return nil, models.NewStoreError("build find", err)
	}

	var rows []bookRow
	if err := library.db.SelectContext(ctx, &rows, sqlQuery, args...); err != nil {
		return nil, models.NewStoreError("find", err)
	}

	books := make([]models.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, row.book())
	}

	return books, nil
}

func (library *SQLLibrary) Count(ctx context.Context, year *int) (int64, error) {
	countStmt := library.builder.
		From(booksTable).
		Prepared(true).
		Select(goqu.COUNT(goqu.Star()))

	if year != nil {
		countStmt = countStmt.Where(goqu.C(colYear).Eq(*year))
	}

	sqlQuery, args, err := countStmt.ToSQL()
	if err != nil {
		return 0, models.NewStoreError("build count", err)
	}

	var count int64
	if err := library.db.GetContext(ctx, &count, sqlQuery, args...); err != nil {
		return 0, models.NewStoreError("count", err)
	}

	return count, nil
}

func (library *SQLLibrary) GetById(ctx context.Context, id models.Id) (*models.Book, error) {
	sqlQuery, args, err := library.builder.
		From(booksTable).
		Prepared(true).
		Select(colId, colTitle, colAuthor, colGenre, colYear).
		Where(goqu.C(colId).Eq(string(id))).
		ToSQL()
	if err != nil {
		return nil, models.NewStoreError("build get", err)
	}

	var row bookRow
	err = library.db.GetContext(ctx, &row, sqlQuery, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("get", err)
	}

	book := row.book()
	return &book, nil
}

func (library *SQLLibrary) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	row := bookRow{
		Id:     uuid.NewString(),
		Title:  book.Title,
		Author: book.Author,
		Genre:  book.Genre,
		Year:   book.Year,
	}

	sqlQuery, args, err := library.builder.
		Insert(booksTable).
		Prepared(true).
		Rows(row).
		ToSQL()
	if err != nil {
		return nil, models.NewStoreError("build create", err)
	}

	if _, err := library.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return nil, models.NewStoreError("create", err)
	}

	created := row.book()
	return &created, nil
}

func (library *SQLLibrary) Update(ctx context.Context, id models.Id, book *models.Book) (*models.Book, error) {
	sqlQuery, args, err := library.builder.
		Update(booksTable).
		Prepared(true).
		Set(goqu.Record{
			colTitle:  book.Title,
			colAuthor: book.Author,
			colGenre:  book.Genre,
			colYear:   book.Year,
		}).
		Where(goqu.C(colId).Eq(string(id))).
		ToSQL()
	if err != nil {
		return nil, models.NewStoreError("build update", err)
	}

	result, err := library.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, models.NewStoreError("update", err)
	}

	if err := expectOneRow(result); err != nil {
		return nil, err
	}

	updated := *book
	updated.ID = string(id)
	return &updated, nil
}

func (library *SQLLibrary) Delete(ctx context.Context, id models.Id) error {
	sqlQuery, args, err := library.builder.
		Delete(booksTable).
		Prepared(true).
		Where(goqu.C(colId).Eq(string(id))).
		ToSQL()
	if err != nil {
		return models.NewStoreError("build delete", err)
	}

	result, err := library.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return models.NewStoreError("delete", err)
	}

	return expectOneRow(result)
}

func (library *SQLLibrary) Stats(ctx context.Context) (*models.Stats, error) {
	sqlQuery, args, err := library.builder.
		From(booksTable).
		Prepared(true).
		Select(
			goqu.COUNT(goqu.Star()).As("number_of_books"),
			goqu.COUNT(goqu.DISTINCT(colAuthor)).As("number_of_authors"),
		).
		ToSQL()
	if err != nil {
		return nil, models.NewStoreError("build stats", err)
	}

	var stats struct {
		NumberOfBooks   int64 `db:"number_of_books"`
		NumberOfAuthors int64 `db:"number_of_authors"`
	}
	if err := library.db.GetContext(ctx, &stats, sqlQuery, args...); err != nil {
		return nil, models.NewStoreError("stats", err)
	}

	return &models.Stats{NumberOfBooks: stats.NumberOfBooks, NumberOfAuthors: stats.NumberOfAuthors}, nil
}

func (library *SQLLibrary) Close() error {
	return library.db.Close()
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return models.NewStoreError("rows affected", err)
	}
	if affected == 0 {
		return models.ErrNotFound
	}
	return nil
}
