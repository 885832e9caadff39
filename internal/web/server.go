// Package web serves the library's HTML pages.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/benjikir/Book-Alchemy/internal/db"
	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/benjikir/Book-Alchemy/internal/metrics"
	"github.com/benjikir/Book-Alchemy/internal/repo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const eventTimeout = 10 * time.Second

// Catalog is the persistence the handlers need.
type Catalog interface {
	ListBooks(ctx context.Context, filter repo.BookFilter) ([]*db.Book, error)
	ListAuthors(ctx context.Context) ([]*db.Author, error)
	CreateAuthor(ctx context.Context, author *db.Author) error
	CreateBook(ctx context.Context, book *db.Book) error
	DeleteBookAndMaybeAuthor(ctx context.Context, id int64) (*repo.DeleteResult, error)
}

// Server holds the handler dependencies and the gin engine.
type Server struct {
	catalog Catalog
	events  events.Emitter
	metrics *metrics.Metrics
	log     *zap.Logger
	engine  *gin.Engine
}

// NewServer wires the routes. gin's mode must be set by the caller.
func NewServer(catalog Catalog, emitter events.Emitter, m *metrics.Metrics, log *zap.Logger) *Server {
	s := &Server{
		catalog: catalog,
		events:  emitter,
		metrics: m,
		log:     log,
	}

	engine := gin.New()
	engine.Use(
		Recovery(log),
		RequestID(),
		Logger(log),
		Instrument(m),
	)
	engine.SetHTMLTemplate(parseTemplates())
	engine.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found")
	})

	engine.GET("/", s.home)
	engine.POST("/", s.home)
	engine.GET("/add_author", s.addAuthorForm)
	engine.POST("/add_author", s.addAuthor)
	engine.GET("/add_book", s.addBookForm)
	engine.POST("/add_book", s.addBook)
	engine.POST("/book/:book_id/delete", s.deleteBook)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler for the application routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// emit publishes an event in the background so broker latency never
// reaches the response.
func (s *Server) emit(c *gin.Context, eventType string, publish func(ctx context.Context) error) {
	requestID := c.GetString(requestIDKey)

	go func() {
		ctx, cancel := context.WithTimeout(events.WithCorrelationID(context.Background(), requestID), eventTimeout)
		defer cancel()

		if err := publish(ctx); err != nil {
			s.log.Error("Failed to publish event",
				zap.String("event_type", eventType),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}
	}()
}
