package db

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeElastic is a single node Elasticsearch stand-in that understands the
// subset of the REST API ElasticLibraryManager sends: index exists/create,
// document index/get/update/delete, _search (from/size, year term filter,
// keyword sorts, cardinality aggregations, scroll) and _count. Like a real
// node it refuses from+size past MAX_RESULT_WINDOW.
type fakeElastic struct {
	mu         sync.Mutex
	index      string
	created    bool
	docs       map[string]bookDocument
	order      []string
	lastID     int
	lastScroll int
	scrolls    map[string]*fakeScroll
}

type fakeScroll struct {
	ids  []string
	size int
}

type fakeSearchRequest struct {
	Query        any                        `json:"query"`
	From         *int                       `json:"from"`
	Size         *int                       `json:"size"`
	Sort         []any                      `json:"sort"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

func newFakeElastic(t *testing.T, index string) (*fakeElastic, *httptest.Server) {
	t.Helper()

	fake := &fakeElastic{
		index:   index,
		docs:    map[string]bookDocument{},
		scrolls: map[string]*fakeScroll{},
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, srv
}

func (fake *fakeElastic) openScrolls() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.scrolls)
}

func (fake *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		writeJSON(w, http.StatusOK, map[string]any{"version": map[string]any{"number": "7.17.0"}})
		return
	}

	segments := strings.Split(path, "/")
	if segments[0] == "_search" && len(segments) == 2 && segments[1] == "scroll" {
		fake.scroll(w, r)
		return
	}
	if segments[0] != fake.index {
		writeError(w, http.StatusNotFound, "index_not_found_exception")
		return
	}

	switch {
	case len(segments) == 1 && r.Method == http.MethodHead:
		if fake.created {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case len(segments) == 1 && r.Method == http.MethodPut:
		fake.created = true
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": fake.index})
	case !fake.created:
		writeError(w, http.StatusNotFound, "index_not_found_exception")
	case len(segments) == 2 && segments[1] == "_doc" && r.Method == http.MethodPost:
		fake.create(w, r)
	case len(segments) == 3 && segments[1] == "_doc" && r.Method == http.MethodGet:
		fake.get(w, segments[2])
	case len(segments) == 3 && segments[1] == "_doc" && r.Method == http.MethodDelete:
		fake.delete(w, segments[2])
	case len(segments) == 3 && segments[1] == "_update" && r.Method == http.MethodPost:
		fake.update(w, r, segments[2])
	case len(segments) == 2 && segments[1] == "_search":
		fake.search(w, r)
	case len(segments) == 2 && segments[1] == "_count":
		fake.count(w, r)
	default:
		writeError(w, http.StatusBadRequest, "unsupported "+r.Method+" "+r.URL.Path)
	}
}

func (fake *fakeElastic) create(w http.ResponseWriter, r *http.Request) {
	var doc bookDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "mapper_parsing_exception")
		return
	}

	fake.lastID++
	id := "doc-" + strconv.Itoa(fake.lastID)
	fake.docs[id] = doc
	fake.order = append(fake.order, id)

	writeJSON(w, http.StatusCreated, map[string]any{"_index": fake.index, "_id": id, "_version": 1, "result": "created"})
}

func (fake *fakeElastic) get(w http.ResponseWriter, id string) {
	doc, ok := fake.docs[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": fake.index, "_id": id, "found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_index": fake.index, "_id": id, "found": true, "_source": doc})
}

func (fake *fakeElastic) delete(w http.ResponseWriter, id string) {
	if _, ok := fake.docs[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"_index": fake.index, "_id": id, "result": "not_found"})
		return
	}

	delete(fake.docs, id)
	for i, existing := range fake.order {
		if existing == id {
			fake.order = append(fake.order[:i], fake.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"_index": fake.index, "_id": id, "result": "deleted"})
}

func (fake *fakeElastic) update(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := fake.docs[id]; !ok {
		writeError(w, http.StatusNotFound, "document_missing_exception")
		return
	}

	var body struct {
		Doc bookDocument `json:"doc"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "x_content_parse_exception")
		return
	}

	fake.docs[id] = body.Doc
	writeJSON(w, http.StatusOK, map[string]any{"_index": fake.index, "_id": id, "result": "updated"})
}

func (fake *fakeElastic) search(w http.ResponseWriter, r *http.Request) {
	var req fakeSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception")
		return
	}

	ids := fake.matching(req)

	if r.URL.Query().Get("scroll") != "" {
		size := 10
		if raw := r.URL.Query().Get("size"); raw != "" {
			size, _ = strconv.Atoi(raw)
		}
		fake.lastScroll++
		scrollID := "scroll-" + strconv.Itoa(fake.lastScroll)
		fake.scrolls[scrollID] = &fakeScroll{ids: ids, size: size}
		fake.writeScrollBatch(w, scrollID, len(ids))
		return
	}

	from, size := 0, 10
	if req.From != nil {
		from = *req.From
	}
	if req.Size != nil {
		size = *req.Size
	}
	if from+size > MAX_RESULT_WINDOW {
		writeError(w, http.StatusBadRequest, "illegal_argument_exception")
		return
	}

	total := len(ids)
	ids = ids[min(from, len(ids)):]
	ids = ids[:min(size, len(ids))]

	result := map[string]any{"hits": fake.hits(ids, total)}
	if len(req.Aggregations) > 0 {
		aggregations := map[string]any{}
		for name := range req.Aggregations {
			aggregations[name] = map[string]any{"value": fake.distinctAuthors()}
		}
		result["aggregations"] = aggregations
	}

	writeJSON(w, http.StatusOK, result)
}

func (fake *fakeElastic) scroll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ScrollID any `json:"scroll_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.Method {
	case http.MethodPost:
		scrollID, _ := body.ScrollID.(string)
		state, ok := fake.scrolls[scrollID]
		if !ok {
			writeError(w, http.StatusNotFound, "search_context_missing_exception")
			return
		}
		fake.writeScrollBatch(w, scrollID, len(state.ids))
	case http.MethodDelete:
		ids, _ := body.ScrollID.([]any)
		for _, id := range ids {
			delete(fake.scrolls, fmt.Sprint(id))
		}
		writeJSON(w, http.StatusOK, map[string]any{"succeeded": true, "num_freed": len(ids)})
	default:
		writeError(w, http.StatusBadRequest, "unsupported scroll method")
	}
}

func (fake *fakeElastic) writeScrollBatch(w http.ResponseWriter, scrollID string, total int) {
	state := fake.scrolls[scrollID]
	batch := state.ids[:min(state.size, len(state.ids))]
	state.ids = state.ids[len(batch):]

	writeJSON(w, http.StatusOK, map[string]any{"_scroll_id": scrollID, "hits": fake.hits(batch, total)})
}

func (fake *fakeElastic) count(w http.ResponseWriter, r *http.Request) {
	var req fakeSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(fake.matching(req))})
}

// matching returns the ids selected by the year term filter, in sort order.
func (fake *fakeElastic) matching(req fakeSearchRequest) []string {
	year := termYear(req.Query)

	ids := make([]string, 0, len(fake.order))
	for _, id := range fake.order {
		if year == nil || fake.docs[id].Year == *year {
			ids = append(ids, id)
		}
	}

	for _, clause := range req.Sort {
		fields, ok := clause.(map[string]any)
		if !ok {
			continue
		}
		for field := range fields {
			key := func(doc bookDocument) string { return "" }
			switch field {
			case "title.keyword":
				key = func(doc bookDocument) string { return doc.Title }
			case "author.keyword":
				key = func(doc bookDocument) string { return doc.Author }
			}
			sort.SliceStable(ids, func(i, j int) bool {
				return key(fake.docs[ids[i]]) < key(fake.docs[ids[j]])
			})
		}
	}

	return ids
}

func (fake *fakeElastic) hits(ids []string, total int) map[string]any {
	hits := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]any{"_index": fake.index, "_id": id, "_source": fake.docs[id]})
	}
	return map[string]any{
		"total": map[string]any{"value": total, "relation": "eq"},
		"hits":  hits,
	}
}

func (fake *fakeElastic) distinctAuthors() int {
	authors := map[string]bool{}
	for _, doc := range fake.docs {
		authors[doc.Author] = true
	}
	return len(authors)
}

// termYear finds a {"term": {"year": N}} clause anywhere in a query.
func termYear(node any) *int {
	switch v := node.(type) {
	case map[string]any:
		if term, ok := v["term"].(map[string]any); ok {
			if year, ok := term["year"].(float64); ok {
				y := int(year)
				return &y
			}
		}
		for _, child := range v {
			if year := termYear(child); year != nil {
				return year
			}
		}
	case []any:
		for _, child := range v {
			if year := termYear(child); year != nil {
				return year
			}
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": kind, "reason": kind},
		"status": status,
	})
}
