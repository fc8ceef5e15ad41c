package staticfile_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/devserve/internal/config"
	"example.com/devserve/internal/handlers/staticfile"
	"example.com/devserve/internal/server"
)

const (
	indexBody = "<html><body>home</body></html>"
	cssBody   = "body { color: red; }\n"
	docsBody  = "<html><body>docs</body></html>"
)

// newFixture builds a served tree and a handler over it.
//
//	root/
//	  index.html
//	  style.css
//	  with space.txt
//	  docs/index.html
//	  bare/a.txt        (no index.html)
func newFixture(t *testing.T, listDirs bool) *staticfile.Handler {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte(indexBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "style.css"), []byte(cssBody), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "with space.txt"), []byte("spaced"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "index.html"), []byte(docsBody), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "bare"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bare", "a.txt"), []byte("aaa"), 0o644))

	cfg := &config.Config{
		Addr:     "127.0.0.1:0",
		WSPort:   8090,
		Root:     root,
		ListDirs: listDirs,
	}
	return staticfile.New(cfg, zerolog.Nop(), server.NewPresenter(zerolog.Nop()))
}

// get issues a request without following redirects.
func get(t *testing.T, url string) *http.Response {
	t.Helper()
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestServeHTMLInjectsReloadScript(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/index.html")
	b := body(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, b, indexBody)
	assert.Contains(t, b, "<script>")
	assert.Contains(t, b, ":8090")
	assert.Equal(t, strconv.Itoa(len(b)), resp.Header.Get("Content-Length"))
}

func TestServeRootUsesIndexFile(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), indexBody)
}

func TestServeNonHTMLVerbatim(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/style.css")
	b := body(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	assert.Equal(t, cssBody, b, "non-HTML bodies must be byte-exact, no injection")
	assert.Equal(t, strconv.Itoa(len(cssBody)), resp.Header.Get("Content-Length"))
}

func TestServeDecodesPercentEncoding(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/with%20space.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "spaced", body(t, resp))
}

func TestDirectoryWithoutSlashRedirects(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/docs")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/docs/", resp.Header.Get("Location"))
}

func TestDirectoryRedirectKeepsQuery(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/docs?x=1&y=2")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/docs/?x=1&y=2", resp.Header.Get("Location"))
}

func TestDirectoryWithSlashServesIndex(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/docs/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), docsBody)
}

func TestMissingFileIs404(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/nope.txt")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body(t, resp), "404 Not Found")
}

func TestDirectoryWithoutIndexIs404ByDefault(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	resp := get(t, ts.URL+"/bare/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDirectoryListingWhenEnabled(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, true))
	defer ts.Close()

	resp := get(t, ts.URL+"/bare/")
	b := body(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, b, "Index of /bare/")
	assert.Contains(t, b, `<a href="a.txt">`)
	assert.Contains(t, b, `<a href="../">`)
	assert.Contains(t, b, "<script>", "listings carry the reload script too")
	assert.Equal(t, strconv.Itoa(len(b)), resp.Header.Get("Content-Length"))
}

func TestDirectoryListingPrefersIndexFile(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, true))
	defer ts.Close()

	resp := get(t, ts.URL+"/docs/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), docsBody)
}

func TestNonGETMethodsRejected(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	for _, method := range []string{http.MethodPost, http.MethodHead, http.MethodPut, http.MethodDelete} {
		req, err := http.NewRequest(method, ts.URL+"/index.html", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, "method %s", method)
		assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"), "method %s", method)
	}
}

func TestTraversalAttemptsAre404(t *testing.T) {
	h := newFixture(t, false)

	for _, target := range []string{
		"/%2e%2e/etc/passwd",
		"/a/%2e%2e/%2e%2e/etc/passwd",
		"/..%2f..%2fetc/passwd",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "target %q", target)
	}
}

func TestNonUTF8PathIs500(t *testing.T) {
	h := newFixture(t, false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/%ff%fe", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRepeatedRequestsAreStable(t *testing.T) {
	ts := httptest.NewServer(newFixture(t, false))
	defer ts.Close()

	first := body(t, get(t, ts.URL+"/index.html"))
	second := body(t, get(t, ts.URL+"/index.html"))
	assert.Equal(t, first, second)
}
