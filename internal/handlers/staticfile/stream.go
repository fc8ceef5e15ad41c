package staticfile

import (
	"bytes"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// copyBufferSize bounds the per-request chunk size while streaming; it is
// independent of file size.
const copyBufferSize = 32 * 1024

// reloadScript is the fragment appended to every HTML response. The %d
// placeholder is the live-reload websocket port; the bytes are fixed at
// handler construction so the advertised Content-Length is exact.
const reloadScript = `
<script>
// Injected by devserve: reload the page when the server signals a change.
(function () {
	var ws = new WebSocket("ws://" + window.location.hostname + ":%d/");
	ws.onmessage = function () { window.location.reload(); };
	ws.onclose = function () {
		setTimeout(function () { window.location.reload(); }, 1000);
	};
})();
</script>
`

// fileStream is a response body in waiting: an open file plus, for HTML,
// the injected trailer. body yields file bytes first and trailer bytes
// strictly after, and is consumed exactly once.
type fileStream struct {
	file        *os.File
	body        io.Reader
	length      int64
	contentType string
}

func (s *fileStream) Close() error { return s.file.Close() }

// openFile opens path and computes the advertised length up front; the
// Content-Length header cannot be corrected once body bytes are sent.
// Open and stat failures come back as *fs.PathError for the classifier.
func (h *Handler) openFile(path string) (*fileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.IsDir() {
		f.Close()
		return nil, &iofs.PathError{Op: "read", Path: path, Err: syscall.EISDIR}
	}

	s := &fileStream{
		file:        f,
		body:        f,
		length:      fi.Size(),
		contentType: MimeFor(path),
	}
	if isHTML(path) {
		s.body = io.MultiReader(f, bytes.NewReader(h.inject))
		s.length += int64(len(h.inject))
	}
	return s, nil
}

func isHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
