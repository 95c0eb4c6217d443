package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"
	"sync"

	"bookcatalog/models"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

// MemoryLibrary keeps the catalog in process memory. With a snapshot path
// every mutation rewrites the whole catalog to that file.
type MemoryLibrary struct {
	mu           sync.RWMutex
	books        map[string]models.Book
	order        []string
	snapshotPath string
}

func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{books: make(map[string]models.Book)}
}

// OpenMemoryLibrary loads the snapshot at path, if any, and keeps writing to it.
func OpenMemoryLibrary(path string) (*MemoryLibrary, error) {
	library := NewMemoryLibrary()
	library.snapshotPath = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return library, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var books []models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	for _, book := range books {
		library.books[book.ID] = book
		library.order = append(library.order, book.ID)
	}

	return library, nil
}

func (library *MemoryLibrary) Find(_ context.Context, query models.Query) ([]models.Book, error) {
	library.mu.RLock()
	defer library.mu.RUnlock()

	books := make([]models.Book, 0, len(library.order))
	for _, id := range library.order {
		book := library.books[id]
		if query.Year != nil && book.Year != *query.Year {
			continue
		}
		books = append(books, book)
	}

	switch query.Sort {
	case models.SortByTitle:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	case models.SortByAuthor:
		sort.SliceStable(books, func(i, j int) bool { return books[i].Author < books[j].Author })
	}

	if query.Skip >= len(books) {
		return []models.Book{}, nil
	}
	books = books[max(query.Skip, 0):]

	if query.Limit > 0 && query.Limit < len(books) {
		books = books[:query.Limit]
	}

	return books, nil
}

func (library *MemoryLibrary) Count(_ context.Context, year *int) (int64, error) {
	library.mu.RLock()
	defer library.mu.RUnlock()

	if year == nil {
		return int64(len(library.books)), nil
	}

	var count int64
	for _, book := range library.books {
		if book.Year == *year {
			count++
		}
	}

	return count, nil
}

func (library *MemoryLibrary) GetById(_ context.Context, id models.Id) (*models.Book, error) {
	library.mu.RLock()
	defer library.mu.RUnlock()

	book, ok := library.books[string(id)]
	if !ok {
		return nil, models.ErrNotFound
	}

	return &book, nil
}

func (library *MemoryLibrary) Create(_ context.Context, book *models.Book) (*models.Book, error) {
	library.mu.Lock()
	defer library.mu.Unlock()

	created := *book
	created.ID = uuid.NewString()

	restore := library.checkpoint()
	library.books[created.ID] = created
	library.order = append(library.order, created.ID)

	if err := library.persist(); err != nil {
		restore()
		return nil, models.NewStoreError("create", err)
	}

	return &created, nil
}

func (library *MemoryLibrary) Update(_ context.Context, id models.Id, book *models.Book) (*models.Book, error) {
	library.mu.Lock()
	defer library.mu.Unlock()

	if _, ok := library.books[string(id)]; !ok {
		return nil, models.ErrNotFound
	}

	updated := *book
	updated.ID = string(id)

	restore := library.checkpoint()
	library.books[updated.ID] = updated

	if err := library.persist(); err != nil {
		restore()
		return nil, models.NewStoreError("update", err)
	}

	return &updated, nil
}

func (library *MemoryLibrary) Delete(_ context.Context, id models.Id) error {
	library.mu.Lock()
	defer library.mu.Unlock()

	if _, ok := library.books[string(id)]; !ok {
		return models.ErrNotFound
	}

	restore := library.checkpoint()
	delete(library.books, string(id))
	library.order = slices.DeleteFunc(library.order, func(existing string) bool {
		return existing == string(id)
	})

	if err := library.persist(); err != nil {
		restore()
		return models.NewStoreError("delete", err)
	}

	return nil
}

func (library *MemoryLibrary) Stats(_ context.Context) (*models.Stats, error) {
	library.mu.RLock()
	defer library.mu.RUnlock()

	authors := make(map[string]struct{})
	for _, book := range library.books {
		authors[book.Author] = struct{}{}
	}

	return &models.Stats{
		NumberOfBooks:   int64(len(library.books)),
		NumberOfAuthors: int64(len(authors)),
	}, nil
}

func (library *MemoryLibrary) Close() error {
	return nil
}

// checkpoint returns a func that puts the catalog back to its current
// state. Callers hold mu.
func (library *MemoryLibrary) checkpoint() func() {
	if library.snapshotPath == "" {
		return func() {}
	}

	books := maps.Clone(library.books)
	order := slices.Clone(library.order)

	return func() {
		library.books = books
		library.order = order
	}
}

// persist must be called with mu held.
func (library *MemoryLibrary) persist() error {
	if library.snapshotPath == "" {
		return nil
	}

	books := make([]models.Book, 0, len(library.order))
	for _, id := range library.order {
		books = append(books, library.books[id])
	}

	data, err := json.MarshalIndent(books, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(library.snapshotPath, bytes.NewReader(data))
}
