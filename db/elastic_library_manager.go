package db

import (
	"context"
	"errors"
	"io"

	"bookcatalog/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/olivere/elastic/v7"
)

const INDEX_NAME = "books"

// MAX_RESULT_WINDOW is the default index.max_result_window. from+size
// searches cannot reach past it.
const MAX_RESULT_WINDOW = 10000

const (
	scrollBatchSize = 1000
	scrollKeepAlive = "1m"
)

// Writes wait for the next refresh so a redirect right after a write
// already sees the change.
const refreshPolicy = "wait_for"

const indexMapping = `{
	"mappings": {
		"properties": {
			"title":  {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"author": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
			"genre":  {"type": "keyword"},
			"year":   {"type": "integer"}
		}
	}
}`

var hitCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type ElasticLibraryManager struct {
	IndexName     string
	ElasticClient *elastic.Client
}

// bookDocument is the _source of a book; the id lives in _id.
type bookDocument struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
	Year   int    `json:"year"`
}

func toDocument(book *models.Book) bookDocument {
	return bookDocument{Title: book.Title, Author: book.Author, Genre: book.Genre, Year: book.Year}
}

func (doc bookDocument) book(id string) models.Book {
	return models.Book{ID: id, Title: doc.Title, Author: doc.Author, Genre: doc.Genre, Year: doc.Year}
}

// NewElasticLibrary wraps client and creates the index when it is missing.
func NewElasticLibrary(ctx context.Context, client *elastic.Client, indexName string) (*ElasticLibraryManager, error) {
	exists, err := client.IndexExists(indexName).Do(ctx)
	if err != nil {
		return nil, models.NewStoreError("index exists", err)
	}

	if !exists {
		_, err = client.CreateIndex(indexName).BodyString(indexMapping).Do(ctx)
		if err != nil {
			return nil, models.NewStoreError("create index", err)
		}
	}

	return &ElasticLibraryManager{indexName, client}, nil
}

func (library *ElasticLibraryManager) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	doc, err := library.ElasticClient.
		Index().
		Index(library.IndexName).
		BodyJson(toDocument(book)).
		Refresh(refreshPolicy).
		Do(ctx)

	if err != nil {
		return nil, models.NewStoreError("create", err)
	}

	created := toDocument(book).book(doc.Id)
	return &created, nil
}

func (library *ElasticLibraryManager) Update(ctx context.Context, id models.Id, book *models.Book) (*models.Book, error) {
	_, err := library.ElasticClient.
		Update().
		Index(library.IndexName).
		Id(string(id)).
		Doc(toDocument(book)).
		Refresh(refreshPolicy).
		Do(ctx)

	if elastic.IsNotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("update", err)
	}

	updated := toDocument(book).book(string(id))
	return &updated, nil
}

func (library *ElasticLibraryManager) GetById(ctx context.Context, id models.Id) (*models.Book, error) {
	doc, err := library.ElasticClient.
		Get().
		Index(library.IndexName).
		Id(string(id)).
		Do(ctx)

	if elastic.IsNotFound(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, models.NewStoreError("get", err)
	}
	if !doc.Found {
		return nil, models.ErrNotFound
	}

	var source bookDocument
	if err := hitCodec.Unmarshal(doc.Source, &source); err != nil {
		return nil, models.NewStoreError("decode", err)
	}

	book := source.book(doc.Id)
	return &book, nil
}

func (library *ElasticLibraryManager) Delete(ctx context.Context, id models.Id) error {
	res, err := library.ElasticClient.
		Delete().
		Index(library.IndexName).
		Id(string(id)).
		Refresh(refreshPolicy).
		Do(ctx)

	if elastic.IsNotFound(err) {
		return models.ErrNotFound
	}
	if err != nil {
		return models.NewStoreError("delete", err)
	}
	if res.Result == "not_found" {
		return models.ErrNotFound
	}

	return nil
}

// Find answers pages inside the result window with from/size and walks a
// scroll for everything else, so deep pages and full listings are never
// cut at MAX_RESULT_WINDOW.
func (library *ElasticLibraryManager) Find(ctx context.Context, query models.Query) ([]models.Book, error) {
	skip := max(query.Skip, 0)
	if query.Limit > 0 && skip < MAX_RESULT_WINDOW && query.Limit <= MAX_RESULT_WINDOW-skip {
		return library.findPage(ctx, query, skip)
	}
	return library.scrollBooks(ctx, query, skip)
}

func (library *ElasticLibraryManager) findPage(ctx context.Context, query models.Query, skip int) ([]models.Book, error) {
	search := library.ElasticClient.Search().
		Index(library.IndexName).
		Pretty(false).
		Query(yearQuery(query.Year)).
		From(skip).
		Size(query.Limit)

	if field := sortKeyword(query.Sort); field != "" {
		search = search.Sort(field, true)
	}

	result, err := search.Do(ctx)
	if err != nil {
		return nil, models.NewStoreError("find", err)
	}

	books := make([]models.Book, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		book, err := decodeHit(hit)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, nil
}

// scrollBooks drops the first skip hits and keeps at most query.Limit
// (everything when Limit is zero).
func (library *ElasticLibraryManager) scrollBooks(ctx context.Context, query models.Query, skip int) ([]models.Book, error) {
	scroll := library.ElasticClient.Scroll(library.IndexName).
		Query(yearQuery(query.Year)).
		Size(scrollBatchSize).
		KeepAlive(scrollKeepAlive)

	if field := sortKeyword(query.Sort); field != "" {
		scroll = scroll.Sort(field, true)
	}
	defer func() { _ = scroll.Clear(context.Background()) }()

	books := []models.Book{}
	for {
		result, err := scroll.Do(ctx)
		if errors.Is(err, io.EOF) {
			return books, nil
		}
		if err != nil {
			return nil, models.NewStoreError("find", err)
		}

		for _, hit := range result.Hits.Hits {
			if skip > 0 {
				skip--
				continue
			}

			book, err := decodeHit(hit)
			if err != nil {
				return nil, err
			}
			books = append(books, book)

			if query.Limit > 0 && len(books) == query.Limit {
				return books, nil
			}
		}
	}
}

func decodeHit(hit *elastic.SearchHit) (models.Book, error) {
	var source bookDocument
	if err := hitCodec.Unmarshal(hit.Source, &source); err != nil {
		return models.Book{}, models.NewStoreError("decode", err)
	}
	return source.book(hit.Id), nil
}

func sortKeyword(field models.SortField) string {
	switch field {
	case models.SortByTitle:
		return "title.keyword"
	case models.SortByAuthor:
		return "author.keyword"
	default:
		return ""
	}
}

func (library *ElasticLibraryManager) Count(ctx context.Context, year *int) (int64, error) {
	count, err := library.ElasticClient.
		Count(library.IndexName).
		Query(yearQuery(year)).
		Do(ctx)

	if err != nil {
		return 0, models.NewStoreError("count", err)
	}

	return count, nil
}

func (library *ElasticLibraryManager) Stats(ctx context.Context) (*models.Stats, error) {
	authorsAggregation := elastic.NewCardinalityAggregation().Field("author.keyword")

	query := library.ElasticClient.Search().
		Index(library.IndexName).
		Aggregation("number_of_authors", authorsAggregation).
		TrackTotalHits(true).
		Size(0)

	results, err := query.Do(ctx)
	if err != nil {
		return nil, models.NewStoreError("stats", err)
	}

	stats := &models.Stats{}
	if results.Hits != nil && results.Hits.TotalHits != nil {
		stats.NumberOfBooks = results.Hits.TotalHits.Value
	}

	numberOfAuthors, found := results.Aggregations.Cardinality("number_of_authors")
	if found && numberOfAuthors.Value != nil {
		stats.NumberOfAuthors = int64(*numberOfAuthors.Value)
	}

	return stats, nil
}

func (library *ElasticLibraryManager) Close() error {
	library.ElasticClient.Stop()
	return nil
}

func yearQuery(year *int) elastic.Query {
	boolQuery := elastic.NewBoolQuery()
	if year != nil {
		boolQuery.Filter(elastic.NewTermQuery("year", *year))
	}
	return boolQuery
}
