package db

import (
	"context"
	"testing"

	"bookcatalog/config"
	"bookcatalog/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newElasticLibrary(t *testing.T) (*ElasticLibraryManager, *fakeElastic) {
	t.Helper()

	fake, srv := newFakeElastic(t, "library")
	client, err := config.SetupElasticSearch(srv.URL)
	require.NoError(t, err)

	library, err := NewElasticLibrary(context.Background(), client, "library")
	require.NoError(t, err)
	t.Cleanup(func() { _ = library.Close() })

	return library, fake
}

func TestNewElasticLibraryCreatesIndex(t *testing.T) {
	_, fake := newElasticLibrary(t)
	assert.True(t, fake.created)
}

func TestElasticFindPastResultWindow(t *testing.T) {
	library, fake := newElasticLibrary(t)
	seed(t, library,
		models.Book{Title: "C", Author: "Z", Year: 1999},
		models.Book{Title: "A", Author: "X", Year: 2001},
		models.Book{Title: "B", Author: "Y", Year: 1999},
	)

	tests := []struct {
		name   string
		query  models.Query
		titles []string
	}{
		{
			name:   "page starting at the window edge",
			query:  models.Query{Sort: models.SortByTitle, Skip: MAX_RESULT_WINDOW, Limit: 10, Page: 1001},
			titles: []string{},
		},
		{
			name:   "page crossing the window edge",
			query:  models.Query{Sort: models.SortByTitle, Skip: MAX_RESULT_WINDOW - 5, Limit: 10, Page: 1000},
			titles: []string{},
		},
		{
			name:   "limit larger than the window",
			query:  models.Query{Sort: models.SortByTitle, Limit: 20000, Page: 1},
			titles: []string{"A", "B", "C"},
		},
		{
			name:   "limit larger than the window with skip",
			query:  models.Query{Sort: models.SortByTitle, Skip: 1, Limit: 20000, Page: 2},
			titles: []string{"B", "C"},
		},
		{
			name:   "everything",
			query:  models.Query{Sort: models.SortByAuthor},
			titles: []string{"A", "B", "C"},
		},
		{
			name:   "everything in one year",
			query:  models.Query{Year: intPtr(1999), Sort: models.SortByTitle},
			titles: []string{"B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := library.Find(context.Background(), tt.query)
			require.NoError(t, err)

			titles := make([]string, 0, len(books))
			for _, book := range books {
				titles = append(titles, book.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.Zero(t, fake.openScrolls())
		})
	}
}

func TestElasticFindScrollsInBatches(t *testing.T) {
	library, fake := newElasticLibrary(t)

	books := make([]models.Book, 0, scrollBatchSize+5)
	for i := 0; i < scrollBatchSize+5; i++ {
		books = append(books, models.Book{Title: "T", Author: "A", Year: 2000})
	}
	seed(t, library, books...)

	all, err := library.Find(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.Len(t, all, scrollBatchSize+5)

	tail, err := library.Find(context.Background(), models.Query{Skip: scrollBatchSize + 2, Limit: MAX_RESULT_WINDOW + 1})
	require.NoError(t, err)
	assert.Len(t, tail, 3)
	assert.Zero(t, fake.openScrolls())
}

func TestElasticStoreFailure(t *testing.T) {
	library, fake := newElasticLibrary(t)

	fake.mu.Lock()
	fake.index = "renamed"
	fake.mu.Unlock()

	_, err := library.Find(context.Background(), models.Query{Limit: 10})
	var storeErr *models.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "find", storeErr.Op)

	_, err = library.Count(context.Background(), nil)
	assert.ErrorAs(t, err, &storeErr)
}
