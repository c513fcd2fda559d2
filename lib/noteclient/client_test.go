package noteclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/oliverisaac/keepnotes/lib/lifecycle"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToHTTPS(t *testing.T) {
	c, err := New("notes.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https", c.base.Scheme)
	assert.Equal(t, "notes.example.com", c.base.Host)
}

func TestCreateAndList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /notes", func(w http.ResponseWriter, r *http.Request) {
		var fields types.NoteFields
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"note": types.Note{ID: "n1", Title: fields.Title}})
	})
	mux.HandleFunc("GET /notes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "archived", r.URL.Query().Get("view"))
		assert.Equal(t, "milk", r.URL.Query().Get("search"))
		json.NewEncoder(w).Encode(map[string]any{"notes": []types.Note{{ID: "n1"}, {ID: "n2"}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	n, err := c.Create(ctx, types.NoteFields{Title: "Groceries", Content: "Milk"})
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, "Groceries", n.Title)

	list, err := c.List(ctx, lifecycle.ViewArchived, "milk")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestErrorResponses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Note not found"}`))
	})
	mux.HandleFunc("DELETE /notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Note not found", apiErr.Message)

	err = c.Purge(context.Background(), "x")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestEmptyBinIssuesOneCallPerNote(t *testing.T) {
	var mu sync.Mutex
	purged := map[string]bool{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /notes/bin", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"notes": []types.Note{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
	})
	mux.HandleFunc("POST /notes/{id}/actions/{action}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "purge", r.PathValue("action"))
		id := r.PathValue("id")
		if id == "b" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Note not found"}`))
			return
		}
		mu.Lock()
		purged[id] = true
		mu.Unlock()
		w.Write([]byte(`{"message":"Note deleted permanently"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	results, err := c.EmptyBin(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.True(t, strings.Contains(results[1].Error, "Note not found"))
	assert.True(t, results[2].OK)
	assert.Equal(t, map[string]bool{"a": true, "c": true}, purged)
}
