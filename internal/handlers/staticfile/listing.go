package staticfile

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// serveListing renders an HTML table of dir's entries through the shared
// page template. Only reachable with -list-dirs set, for directories
// that have no index.html.
func (h *Handler) serveListing(w http.ResponseWriter, r *http.Request, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("<table>\n")
	if r.URL.EscapedPath() != "/" {
		b.WriteString("<tr><td><a href=\"../\">../</a></td><td></td><td></td></tr>\n")
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // entry vanished between ReadDir and Info
		}
		name := entry.Name()
		size := ""
		if entry.IsDir() {
			name += "/"
		} else {
			size = humanize.IBytes(uint64(info.Size()))
		}
		href := (&url.URL{Path: name}).EscapedPath()
		fmt.Fprintf(&b, "<tr><td><a href=\"%s\">%s</a></td><td>%s</td><td>%s</td></tr>\n",
			href, template.HTMLEscapeString(name), size, info.ModTime().Format("2006-01-02 15:04"))
	}
	b.WriteString("</table>\n")

	page, err := h.pres.RenderPage("Index of "+r.URL.Path, template.HTML(b.String()))
	if err != nil {
		return err
	}
	// A listing is an HTML response like any other: it carries the reload
	// script so changes to the directory show up live.
	body := page + string(h.inject)

	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, body); err != nil {
		h.log.Debug().Err(err).Str("dir", dir).Msg("aborted while writing listing")
	}
	return nil
}
