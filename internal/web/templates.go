package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/justestif/go-spotify-dashboard/internal/dashboard"
	catalog "github.com/justestif/go-spotify-dashboard/internal/spotify"
	"github.com/justestif/go-spotify-dashboard/internal/stats"
)

// Templates renders pages. Each page under pages/ is parsed together with
// every layout and partial, and executed through the "base" layout.
type Templates struct {
	pages map[string]*template.Template
	funcs template.FuncMap
}

// NewTemplates parses the page set from templatesFS.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	if templatesFS == nil {
		return nil, fmt.Errorf("no templates filesystem")
	}
	t := &Templates{
		pages: make(map[string]*template.Template),
		funcs: defaultFuncs(),
	}
	if err := t.load(templatesFS); err != nil {
		return nil, err
	}
	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// Has reports whether page was loaded.
func (t *Templates) Has(page string) bool {
	_, ok := t.pages[page]
	return ok
}

func (t *Templates) load(templatesFS fs.FS) error {
	var common []string
	for _, pattern := range []string{"layouts/*.html", "partials/*.html"} {
		matches, err := fs.Glob(templatesFS, pattern)
		if err != nil {
			return fmt.Errorf("finding %s: %w", pattern, err)
		}
		common = append(common, matches...)
	}
	if len(common) == 0 {
		return fmt.Errorf("no layouts found")
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{page}, common...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// formatClock formats milliseconds as M:SS.
		"formatClock": func(ms int) string {
			return stats.FormatClock(int64(ms))
		},

		"formatTime": func(t time.Time) string {
			return t.Local().Format("3:04 PM")
		},

		"formatDate": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006")
		},

		"join": strings.Join,

		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},

		// percent scales n against total for bar widths.
		"percent": func(n, total int) int {
			if total <= 0 {
				return 0
			}
			return n * 100 / total
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	Flash       *FlashMessage
	CurrentPath string
	Theme       string
	SignedIn    bool
}

// UserData contains the signed-in listener's display details.
type UserData struct {
	ID       string
	Name     string
	ImageURL string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string // "error" or "info"
	Message string
}

// HomePageData backs the landing page.
type HomePageData struct {
	PageData
}

// DashboardPageData backs the signed-in home page.
type DashboardPageData struct {
	PageData
	Overview *dashboard.OverviewView
}

// TodayPageData backs the today page.
type TodayPageData struct {
	PageData
	Today     *dashboard.TodayView
	MaxHourly int
}

// ReceiptPageData backs the receipt page.
type ReceiptPageData struct {
	PageData
	Receipt *dashboard.ReceiptView
	Ranges  []RangeOption
}

// RangeOption is one entry in the receipt's range picker.
type RangeOption struct {
	Value    string
	Label    string
	Selected bool
}

func rangeOptions(selected catalog.TimeRange) []RangeOption {
	ranges := []catalog.TimeRange{catalog.ShortTerm, catalog.MediumTerm, catalog.LongTerm}
	out := make([]RangeOption, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, RangeOption{Value: string(r), Label: r.Label(), Selected: r == selected})
	}
	return out
}

// WrappedPageData backs the monthly recap page.
type WrappedPageData struct {
	PageData
	Wrapped *dashboard.WrappedView
}
