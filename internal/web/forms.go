package web

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benjikir/Book-Alchemy/internal/db"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	errInvalidDate   = errors.New("invalid date")
	errInvalidNumber = errors.New("invalid number")
)

// missingFieldError reports a required form field absent from the request.
type missingFieldError struct {
	field string
}

func (e *missingFieldError) Error() string {
	return fmt.Sprintf("missing form field: %s", e.field)
}

// postForm reads the named fields, failing on the first required one that
// is absent. Values are trimmed.
func postForm(c *gin.Context, required []string, optional ...string) (map[string]string, error) {
	values := make(map[string]string, len(required)+len(optional))
	for _, field := range required {
		v, ok := c.GetPostForm(field)
		if !ok {
			return nil, &missingFieldError{field: field}
		}
		values[field] = strings.TrimSpace(v)
	}
	for _, field := range optional {
		values[field] = strings.TrimSpace(c.PostForm(field))
	}
	return values, nil
}

type authorForm struct {
	Name        string `json:"name"`
	BirthDate   string `json:"birthdate"`
	DateOfDeath string `json:"date_of_death"`
}

func bindAuthorForm(c *gin.Context) (*authorForm, error) {
	values, err := postForm(c, []string{"name", "birthdate"}, "date_of_death")
	if err != nil {
		return nil, err
	}
	return &authorForm{
		Name:        values["name"],
		BirthDate:   values["birthdate"],
		DateOfDeath: values["date_of_death"],
	}, nil
}

func (f authorForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
	)
}

// toAuthor parses both dates strictly as YYYY-MM-DD. An empty date of
// death means the author is living or the date is unknown.
func (f authorForm) toAuthor() (*db.Author, error) {
	birth, err := time.Parse(db.DateLayout, f.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
	}

	author := &db.Author{Name: f.Name, BirthDate: birth}
	if f.DateOfDeath != "" {
		death, err := time.Parse(db.DateLayout, f.DateOfDeath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
		}
		author.DateOfDeath = &death
	}
	return author, nil
}

type bookForm struct {
	ISBN            string `json:"isbn"`
	Title           string `json:"title"`
	PublicationYear string `json:"publication_year"`
	AuthorID        string `json:"author_id"`
}

func bindBookForm(c *gin.Context) (*bookForm, error) {
	values, err := postForm(c, []string{"isbn", "title", "publication_year", "author_id"})
	if err != nil {
		return nil, err
	}
	return &bookForm{
		ISBN:            values["isbn"],
		Title:           values["title"],
		PublicationYear: values["publication_year"],
		AuthorID:        values["author_id"],
	}, nil
}

func (f bookForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ISBN, validation.Required, validation.Length(1, 20)),
		validation.Field(&f.Title, validation.Required, validation.Length(1, 255)),
	)
}

func (f bookForm) toBook() (*db.Book, error) {
	year, err := strconv.Atoi(f.PublicationYear)
	if err != nil {
		return nil, fmt.Errorf("%w: publication_year %q", errInvalidNumber, f.PublicationYear)
	}
	authorID, err := strconv.ParseInt(f.AuthorID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: author_id %q", errInvalidNumber, f.AuthorID)
	}

	return &db.Book{
		ISBN:            f.ISBN,
		Title:           f.Title,
		PublicationYear: year,
		AuthorID:        authorID,
	}, nil
}
