package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/board.html.tmpl
var templatesFS embed.FS

// Board renders the board page.
type Board struct {
	tmpl  *template.Template
	title string
}

type boardData struct {
	Title   string
	Threads []Thread
}

// NewBoard parses the embedded page template.
func NewBoard(title string) (*Board, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/board.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse board template: %w", err)
	}
	return &Board{tmpl: tmpl, title: title}, nil
}

// Render writes the page listing threads in the given order.
func (b *Board) Render(w io.Writer, threads []Thread) error {
	return b.tmpl.Execute(w, boardData{Title: b.title, Threads: threads})
}
