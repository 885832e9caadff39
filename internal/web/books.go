package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/benjikir/Book-Alchemy/internal/repo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgBookAdded           = "Book added successfully!"
	msgInvalidYear         = "Invalid publication year. Please enter a number."
	msgAddBookErr          = "Error adding book: "
	msgBookDeleted         = "Book deleted successfully!"
	msgBookAndAuthorDelete = "Book deleted successfully, Author also deleted as they have no more books!"
	msgBookNotFound        = "Book not found"
)

func (s *Server) addBookForm(c *gin.Context) {
	authors, ok := s.authorOptions(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "add_book.html", addBookPage{Authors: authors})
}

func (s *Server) addBook(c *gin.Context) {
	form, err := bindBookForm(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	message := s.createBook(c, form)

	// The author list is read after the write so the page reflects it.
	authors, ok := s.authorOptions(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "add_book.html", addBookPage{Authors: authors, Message: message})
}

// createBook validates and persists the submitted book and returns the
// message to show on the form.
func (s *Server) createBook(c *gin.Context, form *bookForm) string {
	book, err := form.toBook()
	if err != nil {
		s.log.Warn("Rejected book with non-numeric field", zap.Error(err))
		return msgInvalidYear
	}

	if err := form.Validate(); err != nil {
		s.metrics.WriteFailures.WithLabelValues("add_book").Inc()
		return msgAddBookErr + err.Error()
	}

	if err := s.catalog.CreateBook(c.Request.Context(), book); err != nil {
		s.log.Error("Failed to create book",
			zap.String("isbn", book.ISBN),
			zap.Int64("author_id", book.AuthorID),
			zap.Error(err),
		)
		s.metrics.WriteFailures.WithLabelValues("add_book").Inc()
		return msgAddBookErr + err.Error()
	}

	s.log.Info("Book created",
		zap.Int64("book_id", book.ID),
		zap.String("isbn", book.ISBN),
		zap.Int64("author_id", book.AuthorID),
	)
	s.metrics.BooksCreated.Inc()

	created := *book
	s.emit(c, events.EventTypeBookCreated, func(ctx context.Context) error {
		return s.events.PublishBookCreated(ctx, created.ID, created.ISBN, created.Title,
			created.PublicationYear, created.AuthorID)
	})

	return msgBookAdded
}

// authorOptions loads the author select list, writing a 500 on failure.
func (s *Server) authorOptions(c *gin.Context) ([]authorOption, bool) {
	authors, err := s.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		s.log.Error("Failed to list authors", zap.Error(err))
		c.String(http.StatusInternalServerError, "Error loading authors: %v", err)
		return nil, false
	}

	options := make([]authorOption, len(authors))
	for i, a := range authors {
		options[i] = authorOption{ID: a.ID, Name: a.Name}
	}
	return options, true
}

func (s *Server) deleteBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil {
		c.String(http.StatusNotFound, msgBookNotFound)
		return
	}

	result, err := s.catalog.DeleteBookAndMaybeAuthor(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			c.String(http.StatusNotFound, msgBookNotFound)
			return
		}
		s.log.Error("Failed to delete book", zap.Int64("book_id", id), zap.Error(err))
		s.metrics.WriteFailures.WithLabelValues("delete_book").Inc()
		c.String(http.StatusInternalServerError, "Error deleting book: %v", err)
		return
	}

	authorID := result.Book.AuthorID
	s.log.Info("Book deleted",
		zap.Int64("book_id", id),
		zap.Int64("author_id", authorID),
		zap.Bool("author_deleted", result.AuthorDeleted),
	)
	s.metrics.BooksDeleted.Inc()

	message := msgBookDeleted
	if result.AuthorDeleted {
		s.metrics.AuthorsCascadeDeleted.Inc()
		message = msgBookAndAuthorDelete
	}

	authorDeleted := result.AuthorDeleted
	s.emit(c, events.EventTypeBookDeleted, func(ctx context.Context) error {
		return s.events.PublishBookDeleted(ctx, id, authorID, authorDeleted)
	})

	c.Redirect(http.StatusFound, "/?"+url.Values{"message": {message}}.Encode())
}
