package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/benjikir/Book-Alchemy/internal/db"
	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/benjikir/Book-Alchemy/internal/metrics"
	"github.com/benjikir/Book-Alchemy/internal/repo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordedEvent struct {
	eventType     string
	id            int64
	authorDeleted bool
	correlationID string
}

// recordingEmitter captures published events for assertions.
type recordingEmitter struct {
	mu        sync.Mutex
	published []recordedEvent
	unhealthy bool
}

var _ events.Emitter = (*recordingEmitter)(nil)

func (e *recordingEmitter) record(ctx context.Context, ev recordedEvent) {
	ev.correlationID = events.CorrelationID(ctx)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, ev)
}

func (e *recordingEmitter) PublishAuthorCreated(ctx context.Context, authorID int64, _, _, _ string) error {
	e.record(ctx, recordedEvent{eventType: events.EventTypeAuthorCreated, id: authorID})
	return nil
}

func (e *recordingEmitter) PublishBookCreated(ctx context.Context, bookID int64, _, _ string, _ int, _ int64) error {
	e.record(ctx, recordedEvent{eventType: events.EventTypeBookCreated, id: bookID})
	return nil
}

func (e *recordingEmitter) PublishBookDeleted(ctx context.Context, bookID, _ int64, authorDeleted bool) error {
	e.record(ctx, recordedEvent{eventType: events.EventTypeBookDeleted, id: bookID, authorDeleted: authorDeleted})
	return nil
}

func (e *recordingEmitter) IsHealthy() bool { return !e.unhealthy }

func (e *recordingEmitter) Close() error { return nil }

func (e *recordingEmitter) recorded() []recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]recordedEvent(nil), e.published...)
}

type testEnv struct {
	server  *Server
	repo    *repo.LibraryRepository
	db      *db.DB
	emitter *recordingEmitter
	metrics *metrics.Metrics
	reg     *prometheus.Registry
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.Connect(db.Options{Driver: "sqlite", DSN: ":memory:", Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database))
	_, err = db.Seed(context.Background(), database)
	require.NoError(t, err)

	libraryRepo := repo.NewLibraryRepository(database, zap.NewNop())
	reg := prometheus.NewRegistry()
	m := metrics.New(reg, libraryRepo.GetStats, zap.NewNop())
	emitter := &recordingEmitter{}

	return &testEnv{
		server:  NewServer(libraryRepo, emitter, m, zap.NewNop()),
		repo:    libraryRepo,
		db:      database,
		emitter: emitter,
		metrics: m,
		reg:     reg,
	}
}

func (env *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

func (env *testEnv) post(t *testing.T, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

func (env *testEnv) counts(t *testing.T) (books, authors int64) {
	t.Helper()
	books, authors, err := env.repo.GetStats(context.Background())
	require.NoError(t, err)
	return books, authors
}
