// Package staticfile implements the request-to-response pipeline: URI
// decoding and validation, filesystem path mapping, the directory
// redirect policy, MIME inference, and streamed file delivery with
// live-reload script injection for HTML.
package staticfile

import (
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"example.com/devserve/internal/config"
	"example.com/devserve/internal/logger"
	"example.com/devserve/internal/server"
)

// Handler serves GET requests for files under the configured root. It is
// stateless across requests; Config is read-only after startup.
type Handler struct {
	cfg    *config.Config
	log    zerolog.Logger
	pres   *server.Presenter
	inject []byte
}

// New creates the handler and fixes the injected reload script bytes for
// the configured websocket port.
func New(cfg *config.Config, log zerolog.Logger, pres *server.Presenter) *Handler {
	return &Handler{
		cfg:    cfg,
		log:    log,
		pres:   pres,
		inject: []byte(fmt.Sprintf(reloadScript, cfg.WSPort)),
	}
}

// ServeHTTP runs the per-request pipeline: method gate, redirect check,
// path resolution, streaming. Every failure funnels through respondError
// exactly once, so each request gets exactly one response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("unsupported method")
		h.pres.WriteError(w, http.StatusMethodNotAllowed, http.Header{"Allow": {http.MethodGet}})
		return
	}
	if err := h.serve(w, r); err != nil {
		h.respondError(w, err)
	}
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) error {
	redirected, err := h.redirectDir(w, r)
	if err != nil || redirected {
		return err
	}

	path, err := ResolveWithIndex(r.URL.EscapedPath(), h.cfg.Root)
	if err != nil {
		return err
	}

	stream, err := h.openFile(path)
	if err != nil {
		if h.cfg.ListDirs && errors.Is(err, iofs.ErrNotExist) && filepath.Base(path) == indexFile {
			if dir := filepath.Dir(path); isDir(dir) {
				return h.serveListing(w, r, dir)
			}
		}
		return err
	}
	defer stream.Close()

	h.log.Debug().Str("path", path).Int64("len", stream.length).Msg("serving file")
	hdr := w.Header()
	hdr.Set("Content-Type", stream.contentType)
	hdr.Set("Content-Length", strconv.FormatInt(stream.length, 10))
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(w, stream.body, buf); err != nil {
		// Headers are already on the wire; partial delivery is terminal
		// for this request.
		h.log.Debug().Err(err).Str("path", path).Msg("aborted mid-stream")
	}
	return nil
}

// redirectDir issues the canonicalizing 302 for directories requested
// without a trailing slash. Relative links inside index.html only resolve
// correctly when the browser's base URL ends in "/".
func (h *Handler) redirectDir(w http.ResponseWriter, r *http.Request) (bool, error) {
	raw := r.URL.EscapedPath()
	if strings.HasSuffix(raw, "/") {
		return false, nil
	}

	path, err := Resolve(raw, h.cfg.Root)
	if err != nil {
		return false, err
	}
	if fi, err := os.Stat(path); err != nil || !fi.IsDir() {
		return false, nil
	}

	loc := raw + "/"
	if q := r.URL.RawQuery; q != "" {
		loc += "?" + q
	}
	h.log.Info().Str("from", r.URL.RequestURI()).Str("to", loc).Msg("redirecting directory request")
	w.Header().Set("Location", loc)
	w.WriteHeader(http.StatusFound)
	return true, nil
}

// respondError classifies err exactly once, at the outer boundary: I/O
// failures are routine 404s logged at debug only, everything else is a
// 500 logged with its full cause chain.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var pathErr *iofs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, ErrOutsideRoot) {
		h.log.Debug().Err(err).Msg("request failed")
		h.pres.WriteError(w, http.StatusNotFound, nil)
		return
	}
	logger.ErrorChain(h.log, "internal error while serving request", err)
	h.pres.WriteError(w, http.StatusInternalServerError, nil)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
