package web

import (
	"context"
	"net/http"
	"time"

	"github.com/benjikir/Book-Alchemy/internal/db"
	"github.com/benjikir/Book-Alchemy/internal/events"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgAuthorAdded  = "Author added successfully!"
	msgInvalidDate  = "Invalid date format. Please use YYYY-MM-DD."
	msgAddAuthorErr = "Error adding author: "
)

func (s *Server) addAuthorForm(c *gin.Context) {
	c.HTML(http.StatusOK, "add_author.html", addAuthorPage{})
}

func (s *Server) addAuthor(c *gin.Context) {
	form, err := bindAuthorForm(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	author, err := form.toAuthor()
	if err != nil {
		s.log.Warn("Rejected author with invalid date",
			zap.String("birthdate", form.BirthDate),
			zap.String("date_of_death", form.DateOfDeath),
		)
		c.HTML(http.StatusOK, "add_author.html", addAuthorPage{Message: msgInvalidDate})
		return
	}

	if err := form.Validate(); err != nil {
		s.metrics.WriteFailures.WithLabelValues("add_author").Inc()
		c.HTML(http.StatusOK, "add_author.html", addAuthorPage{Message: msgAddAuthorErr + err.Error()})
		return
	}

	if err := s.catalog.CreateAuthor(c.Request.Context(), author); err != nil {
		s.log.Error("Failed to create author", zap.String("name", author.Name), zap.Error(err))
		s.metrics.WriteFailures.WithLabelValues("add_author").Inc()
		c.HTML(http.StatusOK, "add_author.html", addAuthorPage{Message: msgAddAuthorErr + err.Error()})
		return
	}

	s.log.Info("Author created", zap.Int64("author_id", author.ID), zap.String("name", author.Name))
	s.metrics.AuthorsCreated.Inc()

	created := *author
	s.emit(c, events.EventTypeAuthorCreated, func(ctx context.Context) error {
		return s.events.PublishAuthorCreated(ctx, created.ID, created.Name,
			created.BirthDate.Format(db.DateLayout), formatOptionalDate(created.DateOfDeath))
	})

	c.HTML(http.StatusOK, "add_author.html", addAuthorPage{Message: msgAuthorAdded})
}

func formatOptionalDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(db.DateLayout)
}
