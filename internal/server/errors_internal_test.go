package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/devserve/internal/logger"
)

// brokenPresenter carries a template that parses but cannot render:
// Page.Title is a plain string, so evaluating a field on it fails at
// Execute time.
func brokenPresenter(out *bytes.Buffer) *Presenter {
	return &Presenter{
		log:  logger.NewWithWriter("debug", out),
		tmpl: template.Must(template.New("page").Parse("{{.Title.Missing}}")),
	}
}

func TestWriteErrorFallsBackToPlaintext(t *testing.T) {
	var logs bytes.Buffer
	p := brokenPresenter(&logs)
	rec := httptest.NewRecorder()

	p.WriteError(rec, http.StatusNotFound, nil)

	resp := rec.Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode,
		"an unrenderable error page must still answer the request")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "unexpected internal error")
	assert.Contains(t, logs.String(), "failed to build error response")
}
