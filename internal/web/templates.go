package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// parseTemplates panics on a malformed template; they are compiled into
// the binary, so that is a build defect.
func parseTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

type bookRow struct {
	ID              int64
	ISBN            string
	Title           string
	PublicationYear int
	AuthorName      string
}

type homePage struct {
	Books      []bookRow
	SearchTerm string
	SortBy     string
	Message    string
}

type authorOption struct {
	ID   int64
	Name string
}

type addAuthorPage struct {
	Message string
}

type addBookPage struct {
	Authors []authorOption
	Message string
}
