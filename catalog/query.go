// Package catalog turns catalog request parameters into a store query and
// pages through the results.
package catalog

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"bookcatalog/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var (
	ErrInvalidPage  = errors.New("page should be a whole number")
	ErrInvalidLimit = errors.New("limit should be a whole number")
)

// Params are the raw query string values of a catalog request.
type Params struct {
	Page  string `form:"page"`
	Limit string `form:"limit"`
	Year  string `form:"year"`
	Sort  string `form:"sort"`
}

type Pagination struct {
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

type Page struct {
	Books      []models.Book `json:"books"`
	Pagination Pagination    `json:"pagination"`
}

// BuildQuery validates p and computes the store query. Page and limit
// below 1 are clamped to 1.
func BuildQuery(p Params) (models.Query, error) {
	page, err := parsePositive(p.Page, DefaultPage)
	if err != nil {
		return models.Query{}, ErrInvalidPage
	}

	limit, err := parsePositive(p.Limit, DefaultLimit)
	if err != nil {
		return models.Query{}, ErrInvalidLimit
	}

	// skip must fit in an int
	if page-1 > math.MaxInt/limit {
		return models.Query{}, ErrInvalidPage
	}

	query := models.Query{
		Sort:  sortField(p.Sort),
		Skip:  (page - 1) * limit,
		Limit: limit,
		Page:  page,
	}

	if p.Year != "" {
		year, err := models.ValidateYear(p.Year)
		if err != nil {
			return models.Query{}, err
		}
		query.Year = &year
	}

	return query, nil
}

// Fetch runs query against lib and attaches the pagination metadata.
func Fetch(ctx context.Context, lib models.Library, query models.Query) (*Page, error) {
	books, err := lib.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	total, err := lib.Count(ctx, query.Year)
	if err != nil {
		return nil, err
	}

	if books == nil {
		books = []models.Book{}
	}

	return &Page{
		Books: books,
		Pagination: Pagination{
			TotalItems:  total,
			TotalPages:  TotalPages(total, query.Limit),
			CurrentPage: query.Page,
		},
	}, nil
}

// TotalPages is ceil(total / limit); a non-positive limit yields 0.
func TotalPages(total int64, limit int) int64 {
	if limit < 1 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

func parsePositive(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}

	return max(n, 1), nil
}

func sortField(raw string) models.SortField {
	switch raw {
	case "title":
		return models.SortByTitle
	case "author":
		return models.SortByAuthor
	default:
		return models.SortNone
	}
}
