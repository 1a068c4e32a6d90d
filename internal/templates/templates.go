// Package templates holds the server-rendered pages.
package templates

import (
	"embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed layouts videos users errors
var files embed.FS

// Layout wraps every page.
const Layout = "layouts/base"

// NewEngine parses the embedded templates with the helper functions.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(files), ".html")
	engine.AddFunc("date", func(t time.Time) string {
		return t.Format("Jan 2, 2006")
	})
	engine.AddFunc("datetime", func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	})
	engine.AddFunc("average", func(avg *float64) string {
		if avg == nil {
			return "No ratings yet"
		}
		return fmt.Sprintf("%.1f / 5", *avg)
	})
	engine.AddFunc("isRating", func(current *int, n int) bool {
		return current != nil && *current == n
	})
	engine.AddFunc("stars", func() []int {
		return []int{1, 2, 3, 4, 5}
	})
	return engine
}

// Flash is a one-shot message shown above the page content.
type Flash struct {
	Kind    string // bootstrap alert variant: success, danger, info, warning
	Message string
}
