package web

import (
	"context"
	"net/http"

	"github.com/benjikir/Book-Alchemy/internal/repo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgNoSearchResults = "No books found matching your search criteria."

// home lists, searches and sorts books. GET and POST behave alike; the
// search term only arrives in a POST body.
func (s *Server) home(c *gin.Context) {
	page, err := s.buildHomePage(c.Request.Context(), c.Query("sort_by"), c.PostForm("search_term"), c.Query("message"))
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books: %v", err)
		return
	}

	c.HTML(http.StatusOK, "home.html", page)
}

// buildHomePage applies the list rules: a search discards any passed-in
// message and reports when nothing matched; without a search the
// passed-in message is shown as is.
func (s *Server) buildHomePage(ctx context.Context, sortBy, searchTerm, message string) (*homePage, error) {
	filter := repo.BookFilter{
		SearchTerm: searchTerm,
		SortBy:     repo.ParseSortKey(sortBy),
	}

	books, err := s.catalog.ListBooks(ctx, filter)
	if err != nil {
		s.log.Error("Failed to list books", zap.Error(err))
		return nil, err
	}

	if searchTerm != "" {
		message = ""
		if len(books) == 0 {
			message = msgNoSearchResults
		}
	}

	page := &homePage{
		Books:      make([]bookRow, len(books)),
		SearchTerm: searchTerm,
		SortBy:     string(filter.SortBy),
		Message:    message,
	}
	for i, b := range books {
		page.Books[i] = bookRow{
			ID:              b.ID,
			ISBN:            b.ISBN,
			Title:           b.Title,
			PublicationYear: b.PublicationYear,
			AuthorName:      b.Author.Name,
		}
	}
	return page, nil
}
