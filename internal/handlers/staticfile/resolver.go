package staticfile

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Domain errors produced while mapping a request target to a filesystem
// path. They carry precise meaning for the 404-vs-500 classifier: escape
// attempts read as "not found", the rest as internal errors.
var (
	// ErrNotAbsolute reports a request target that is not in
	// absolute-path form.
	ErrNotAbsolute = errors.New("requested URI is not an absolute path")
	// ErrNotUTF8 reports a percent-decoded path that is not valid UTF-8.
	ErrNotUTF8 = errors.New("requested URI is not valid UTF-8")
	// ErrOutsideRoot reports a path that would resolve outside the
	// serving root after ".." segments are folded.
	ErrOutsideRoot = errors.New("requested path is outside the root directory")
)

const indexFile = "index.html"

// Resolve maps a raw (still percent-encoded) request path onto root:
// strip any query leftovers, percent-decode, validate UTF-8 and
// absoluteness, then join onto root. root must be absolute and cleaned,
// which config validation guarantees.
func Resolve(rawPath, root string) (string, error) {
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		rawPath = rawPath[:i]
	}

	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", fmt.Errorf("malformed percent-encoding in %q: %w", rawPath, err)
	}
	if !utf8.ValidString(decoded) {
		return "", fmt.Errorf("%w: %q", ErrNotUTF8, rawPath)
	}
	if !strings.HasPrefix(decoded, "/") {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, decoded)
	}

	// Join cleans the result, folding any ".." segments; verify the
	// outcome still lies under root instead of trusting the request.
	// root may itself end in a separator (the filesystem root does).
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	joined := filepath.Join(root, decoded[1:])
	if joined != root && !strings.HasPrefix(joined, prefix) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, decoded)
	}
	return joined, nil
}

// ResolveWithIndex resolves rawPath and, when the result denotes a
// directory, appends index.html. Stat failures leave the path untouched
// so the open that follows reports them.
func ResolveWithIndex(rawPath, root string) (string, error) {
	path, err := Resolve(rawPath, root)
	if err != nil {
		return "", err
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, indexFile)
	}
	return path, nil
}
