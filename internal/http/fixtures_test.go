package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/services"
)

var fixtureTime = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func note(s string) *string { return &s }

func fixtureItems() []entities.LibraryItem {
	first := entities.LibraryItem{
		ID: "B001", Title: "Dune", Author: "Frank Herbert",
		CoverURL: "https://covers.example/dune.jpg", ScrapedAt: fixtureTime, NativeID: true,
	}
	first.SetHighlights([]entities.Annotation{
		{Text: "Fear is the mind-killer.", Location: "Location 12", Note: note("classic")},
		{Text: "The spice must flow.", Location: "Location 40"},
	})
	second := entities.LibraryItem{
		ID: "B002", Title: "Empty Book", Author: "Nobody", ScrapedAt: fixtureTime, NativeID: true,
	}
	second.SetHighlights(nil)
	return []entities.LibraryItem{first, second}
}

func newFixtureStore(t *testing.T, items []entities.LibraryItem) *catalog.MemoryStore {
	t.Helper()
	store := catalog.NewMemoryStore()
	require.NoError(t, store.Replace(context.Background(), items))
	return store
}

type fakeSyncer struct {
	mu      sync.Mutex
	calls   []services.SyncRequest
	outcome *services.SyncOutcome
	err     error
	syncing bool
}

func (f *fakeSyncer) Sync(_ context.Context, req services.SyncRequest) (*services.SyncOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.outcome, f.err
}

func (f *fakeSyncer) IsSyncing() bool { return f.syncing }

type fakeHistory struct {
	runs      []entities.SyncRun
	err       error
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]entities.SyncRun, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.runs, nil
}

type fakeCovers struct {
	path string
	err  error
	ids  []string
}

func (f *fakeCovers) GetCover(_ context.Context, itemID, _ string) (string, error) {
	f.ids = append(f.ids, itemID)
	return f.path, f.err
}

var errBoom = errors.New("boom")

func testRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg.Logger = zerolog.Nop()
	return NewRouter(cfg)
}

func perform(router http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return strings.NewReader(string(raw))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
