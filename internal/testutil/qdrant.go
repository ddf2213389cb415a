package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

// QdrantStub serves the slice of Qdrant's REST API the collection
// endpoints use, keeping collections in memory.
type QdrantStub struct {
	URL string

	mu          sync.Mutex
	apiKey      string
	collections map[string]map[string]any
}

// NewQdrantStub starts a stub that requires apiKey when non-empty. The
// server is closed when the test ends.
func NewQdrantStub(t testing.TB, apiKey string) *QdrantStub {
	t.Helper()
	q := &QdrantStub{apiKey: apiKey, collections: map[string]map[string]any{}}
	srv := httptest.NewServer(http.HandlerFunc(q.handle))
	t.Cleanup(srv.Close)
	q.URL = srv.URL
	return q
}

// AddCollection seeds a collection with the given vector size and
// Qdrant distance name.
func (q *QdrantStub) AddCollection(name string, size int, distance string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.collections[name] = map[string]any{"size": size, "distance": distance}
}

// Names returns the stored collection names in order.
func (q *QdrantStub) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, 0, len(q.collections))
	for name := range q.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (q *QdrantStub) reply(w http.ResponseWriter, code int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if code >= 400 {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": map[string]any{"error": http.StatusText(code)}, "time": 0})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok", "time": 0})
}

func (q *QdrantStub) handle(w http.ResponseWriter, r *http.Request) {
	if q.apiKey != "" && r.Header.Get("api-key") != q.apiKey {
		q.reply(w, http.StatusUnauthorized, nil)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if r.URL.Path == "/collections" {
		list := make([]map[string]string, 0, len(q.collections))
		for name := range q.collections {
			list = append(list, map[string]string{"name": name})
		}
		q.reply(w, http.StatusOK, map[string]any{"collections": list})
		return
	}

	name, ok := strings.CutPrefix(r.URL.Path, "/collections/")
	if !ok {
		q.reply(w, http.StatusNotFound, nil)
		return
	}
	switch r.Method {
	case http.MethodGet:
		vectors, ok := q.collections[name]
		if !ok {
			q.reply(w, http.StatusNotFound, nil)
			return
		}
		q.reply(w, http.StatusOK, map[string]any{
			"status":                "green",
			"points_count":          0,
			"indexed_vectors_count": 0,
			"segments_count":        1,
			"config":                map[string]any{"params": map[string]any{"vectors": vectors}},
		})
	case http.MethodPut:
		if _, ok := q.collections[name]; ok {
			q.reply(w, http.StatusConflict, nil)
			return
		}
		var payload struct {
			Vectors map[string]any `json:"vectors"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Vectors == nil {
			q.reply(w, http.StatusBadRequest, nil)
			return
		}
		q.collections[name] = payload.Vectors
		q.reply(w, http.StatusOK, true)
	case http.MethodDelete:
		if _, ok := q.collections[name]; !ok {
			q.reply(w, http.StatusNotFound, nil)
			return
		}
		delete(q.collections, name)
		q.reply(w, http.StatusOK, true)
	default:
		q.reply(w, http.StatusMethodNotAllowed, nil)
	}
}
