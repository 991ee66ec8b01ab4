// Package render turns stored entries into the display records and HTML
// shown on the board.
package render

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/edgard/diary/internal/database"
)

// DateLayout matches the en-US short weekday/month form with the commas
// dropped, e.g. "Mon Jan 2 06 3:04 PM".
const DateLayout = "Mon Jan 2 06 3:04 PM"

// Thread is the display record of one entry.
type Thread struct {
	ID      int64         `json:"id"`
	No      string        `json:"no"`
	Name    string        `json:"name"`
	Sub     string        `json:"sub"`
	Date    string        `json:"date"`
	Comment template.HTML `json:"comment"`
}

var commentPolicy = newCommentPolicy()

func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^greentext$`)).OnElements("span")
	return p
}

// FormatNo zero-pads id to eight digits.
func FormatNo(id int64) string {
	return fmt.Sprintf("%08d", id)
}

// FormatDate renders t in loc using DateLayout.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// CommentHTML converts greentext into an HTML fragment. Every line is
// escaped; lines starting with ">" are wrapped in a greentext span and lines
// are joined with <br>. Only those two constructs survive sanitising.
func CommentHTML(greentext string) template.HTML {
	lines := strings.Split(strings.ReplaceAll(greentext, "\r\n", "\n"), "\n")
	for i, line := range lines {
		escaped := template.HTMLEscapeString(line)
		if strings.HasPrefix(line, ">") {
			escaped = `<span class="greentext">` + escaped + `</span>`
		}
		lines[i] = escaped
	}
	//nolint:gosec // sanitized by commentPolicy
	return template.HTML(commentPolicy.Sanitize(strings.Join(lines, "<br>")))
}

// NewThread builds the display record of e.
func NewThread(e database.Entry, loc *time.Location) Thread {
	return Thread{
		ID:      e.ID,
		No:      FormatNo(e.ID),
		Name:    e.Name,
		Sub:     e.Sub,
		Date:    FormatDate(e.CreatedAt, loc),
		Comment: CommentHTML(e.Greentext),
	}
}

// Threads maps entries to display records, keeping their order.
func Threads(entries []database.Entry, loc *time.Location) []Thread {
	threads := make([]Thread, 0, len(entries))
	for _, e := range entries {
		threads = append(threads, NewThread(e, loc))
	}
	return threads
}
