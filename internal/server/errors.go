package server

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"example.com/devserve/internal/logger"
)

// pageSource is the HTML shell shared by error pages and directory
// listings: a title and an optional pre-rendered body fragment.
const pageSource = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 60em; padding: 0 1em; }
h1 { font-size: 1.4em; border-bottom: 1px solid #ddd; padding-bottom: 0.3em; }
table { border-collapse: collapse; }
td { padding: 0.15em 1.5em 0.15em 0; white-space: nowrap; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.Body}}
</body>
</html>
`

// Page is the data rendered into pageSource.
type Page struct {
	Title string
	Body  template.HTML
}

// Presenter renders HTML pages, most importantly the error page emitted
// for every failed request. Rendering failures degrade to a plaintext
// response so no request ever goes unanswered.
type Presenter struct {
	log  zerolog.Logger
	tmpl *template.Template
}

// NewPresenter parses the page template and returns a Presenter.
func NewPresenter(log zerolog.Logger) *Presenter {
	return &Presenter{
		log:  log,
		tmpl: template.Must(template.New("page").Parse(pageSource)),
	}
}

// RenderPage renders the shared page shell. body must already be safe
// HTML; callers escape any user-controlled content before building it.
func (p *Presenter) RenderPage(title string, body template.HTML) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, Page{Title: title, Body: body}); err != nil {
		return "", fmt.Errorf("failed to render page template: %w", err)
	}
	return buf.String(), nil
}

// WriteError writes the rendered error page for status, merging extra
// headers (e.g. Allow for 405) into the response. If even the error page
// cannot be built it falls back to a minimal plaintext response; that is
// the last line of defense.
func (p *Presenter) WriteError(w http.ResponseWriter, status int, extra http.Header) {
	title := fmt.Sprintf("%d %s", status, http.StatusText(status))
	page, err := p.RenderPage(title, "")
	if err != nil {
		logger.ErrorChain(p.log, "failed to build error response", err)
		http.Error(w, "unexpected internal error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h := w.Header()
	for name, values := range extra {
		h[name] = values
	}
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(status)
	if _, err := io.WriteString(w, page); err != nil {
		p.log.Debug().Err(err).Int("status", status).Msg("failed to write error page body")
	}
}
