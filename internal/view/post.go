package view

import (
	"embed"
	"html/template"
	"io"

	"github.com/renix-codex/postboard/internal/models"
)

// Heading is the title shown above the list.
const Heading = "API Gateway Example: Posts"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// RenderPost writes the presentational unit for a single post, keyed by
// its id.
func RenderPost(w io.Writer, p models.Post) error {
	return templates.ExecuteTemplate(w, "post", p)
}

type pageData struct {
	Heading string
	Posts   []models.Post
}

func renderPage(w io.Writer, posts []models.Post) error {
	return templates.ExecuteTemplate(w, "page", pageData{Heading: Heading, Posts: posts})
}
