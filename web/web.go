// Package web holds the page templates and static assets, embedded into
// the binary.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/url"
	"strconv"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"pageURL": func(page int, limit int, year, sort string) string {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(limit))
		if year != "" {
			q.Set("year", year)
		}
		if sort != "" {
			q.Set("sort", sort)
		}
		return "/catalog?" + q.Encode()
	},
}

// Templates parses every page template. Pages are addressed by file name,
// e.g. "catalog.tmpl".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
}

// Static returns the static asset tree rooted at its own directory.
func Static() fs.FS {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return static
}
