package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabaseFixture(t *testing.T, objects map[string][]byte, pages [][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/object/list/curriculum":
			var req supabaseListRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			idx := req.Offset / supabaseListPageSize
			var out []map[string]interface{}
			if idx < len(pages) {
				for _, name := range pages[idx] {
					if name == "folder/" {
						out = append(out, map[string]interface{}{"id": nil, "name": "folder"})
						continue
					}
					out = append(out, map[string]interface{}{
						"id":         "id-" + name,
						"name":       name,
						"updated_at": "2024-05-01T10:00:00Z",
						"metadata":   map[string]interface{}{"size": len(objects[name])},
					})
				}
			}
			_ = json.NewEncoder(w).Encode(out)
		case r.Method == http.MethodGet:
			name := r.URL.Path[len("/storage/v1/object/curriculum/"):]
			data, ok := objects[name]
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
				return
			}
			_, _ = w.Write(data)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
}

func TestSupabaseStoreList(t *testing.T) {
	objects := map[string][]byte{"grade5-math.pdf": []byte("%PDF"), "grade5-science.pdf": []byte("%PDF")}
	srv := newSupabaseFixture(t, objects, [][]string{{"folder/", ".emptyFolderPlaceholder", "grade5-math.pdf", "grade5-science.pdf"}})
	defer srv.Close()

	store := NewSupabaseStore(srv.URL+"/", "service-key", "curriculum", 0)
	list, err := store.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "grade5-math.pdf", list[0].Name)
	assert.Equal(t, int64(4), list[0].Size)
	assert.Equal(t, 2024, list[0].UpdatedAt.Year())
	assert.Equal(t, "grade5-science.pdf", list[1].Name)
}

func TestSupabaseStoreListPages(t *testing.T) {
	first := make([]string, supabaseListPageSize)
	objects := map[string][]byte{}
	for i := range first {
		first[i] = fmt.Sprintf("doc-%03d.pdf", i)
		objects[first[i]] = []byte("x")
	}
	objects["last.pdf"] = []byte("x")
	srv := newSupabaseFixture(t, objects, [][]string{first, {"last.pdf"}})
	defer srv.Close()

	list, err := NewSupabaseStore(srv.URL, "service-key", "curriculum", 0).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, supabaseListPageSize+1)
	assert.Equal(t, "last.pdf", list[len(list)-1].Name)
}

func TestSupabaseStoreDownload(t *testing.T) {
	objects := map[string][]byte{"unit 1.pdf": []byte("%PDF-1.7"), "empty.pdf": {}}
	srv := newSupabaseFixture(t, objects, nil)
	defer srv.Close()
	store := NewSupabaseStore(srv.URL, "service-key", "curriculum", 0)

	data, err := store.Download(context.Background(), "unit 1.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)

	_, err = store.Download(context.Background(), "missing.pdf")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = store.Download(context.Background(), "empty.pdf")
	assert.True(t, errors.Is(err, apperror.ErrEmptyPayload))
}
