package githubstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/store"
)

// newTestStore points a store at a stub GitHub API served by mux.
func newTestStore(t *testing.T, mux *http.ServeMux) *Store {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	client := gh.NewClient(nil)
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.BaseURL = base
	client.UploadURL = base

	return NewWithClient(client, "owner", "book")
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}

func TestReadFileDecodesBase64(t *testing.T) {
	content := "\\documentclass{book}\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(content))

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/contents/main.tex", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(
			`{"type":"file","name":"main.tex","path":"main.tex","sha":"abc123","size":%d,"encoding":"base64","content":%q}`,
			len(content), encoded))
	})

	s := newTestStore(t, mux)
	got, err := s.ReadFile(context.Background(), "main.tex", "main")
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestReadFileMissingIsNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/contents/chapters/chapter9.tex", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, `{"message":"Not Found"}`)
	})

	s := newTestStore(t, mux)
	_, err := s.ReadFile(context.Background(), "chapters/chapter9.tex", "main")
	require.Error(t, err)
	assert.True(t, store.IsNotFound(err))
}

func TestReadFileOversizedFallsBackToBlob(t *testing.T) {
	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff} // %PDF + binary tail

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/contents/main.pdf", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK,
			`{"type":"file","name":"main.pdf","path":"main.pdf","sha":"blob42","size":2097152,"encoding":"none","content":""}`)
	})
	mux.HandleFunc("/repos/owner/book/git/blobs/blob42", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "raw")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	})

	s := newTestStore(t, mux)
	got, err := s.ReadFile(context.Background(), "main.pdf", "compiled-output")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriteFileCreatesWhenAbsent(t *testing.T) {
	var putBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/contents/output/main.pdf", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusNotFound, `{"message":"Not Found"}`)
		case http.MethodPut:
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &putBody))
			writeJSON(t, w, http.StatusCreated, `{"content":{"sha":"newsha"},"commit":{"sha":"commitsha"}}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	s := newTestStore(t, mux)
	payload := []byte{0x01, 0x02, 0xfe}
	info, err := s.WriteFile(context.Background(), "output/main.pdf", payload, "publish build", "compiled-output")
	require.NoError(t, err)
	assert.Equal(t, "commitsha", info.SHA)

	assert.Equal(t, "publish build", putBody["message"])
	assert.Equal(t, "compiled-output", putBody["branch"])
	_, hasSHA := putBody["sha"]
	assert.False(t, hasSHA, "create must not send a blob sha")

	decoded, err := base64.StdEncoding.DecodeString(putBody["content"].(string))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded, "binary payload must be base64 transported, not UTF-8 mangled")
}

func TestWriteFileUpdatesWithExistingSHA(t *testing.T) {
	var putBody map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/contents/main.tex", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, http.StatusOK,
				`{"type":"file","name":"main.tex","path":"main.tex","sha":"oldsha","size":4,"encoding":"base64","content":"dGVzdA=="}`)
		case http.MethodPut:
			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(raw, &putBody))
			writeJSON(t, w, http.StatusOK, `{"content":{"sha":"newsha"},"commit":{"sha":"commit2"}}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	s := newTestStore(t, mux)
	_, err := s.WriteFile(context.Background(), "main.tex", []byte("updated"), "update master", "compiled-output")
	require.NoError(t, err)
	assert.Equal(t, "oldsha", putBody["sha"], "update must carry the current blob sha so the write overwrites")
}

func TestListBranchesFollowsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/branches", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, http.StatusOK, `[{"name":"compiled-output"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s?page=2>; rel="next"`, "http://"+r.Host+r.URL.Path))
		writeJSON(t, w, http.StatusOK, `[{"name":"main"},{"name":"review"}]`)
	})

	s := newTestStore(t, mux)
	branches, err := s.ListBranches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "review", "compiled-output"}, branches)
}

func TestCreateBranchAlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/git/ref/heads/main", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"ref":"refs/heads/main","object":{"sha":"basesha","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/owner/book/git/refs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(t, w, http.StatusUnprocessableEntity, `{"message":"Reference already exists"}`)
	})

	s := newTestStore(t, mux)
	err := s.CreateBranch(context.Background(), "compiled-output", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrBranchExists)
}

func TestCreateBranchFromBase(t *testing.T) {
	var created map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/book/git/ref/heads/main", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"ref":"refs/heads/main","object":{"sha":"basesha","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/owner/book/git/refs", func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &created))
		writeJSON(t, w, http.StatusCreated, `{"ref":"refs/heads/compiled-output","object":{"sha":"basesha","type":"commit"}}`)
	})

	s := newTestStore(t, mux)
	require.NoError(t, s.CreateBranch(context.Background(), "compiled-output", "main"))
	assert.Equal(t, "refs/heads/compiled-output", created["ref"])
	assert.Equal(t, "basesha", created["sha"])
}
