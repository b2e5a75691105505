package lambdaproxy

import (
	"bytes"
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
)

// responseWriter buffers a handler's response so it can be returned as an event.
type responseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseWriter) singleHeaders() map[string]string {
	out := make(map[string]string, len(w.header))
	for k, vs := range w.header {
		if len(vs) > 0 {
			out[k] = strings.Join(vs, ", ")
		}
	}
	return out
}

// encodedBody returns the body and whether it had to be base64 encoded.
// Text and JSON bodies pass through as is.
func (w *responseWriter) encodedBody() (string, bool) {
	if w.body.Len() == 0 {
		return "", false
	}
	if isTextual(w.header.Get("Content-Type")) {
		return w.body.String(), false
	}
	return base64.StdEncoding.EncodeToString(w.body.Bytes()), true
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		mediaType == "application/json",
		strings.HasSuffix(mediaType, "+json"),
		mediaType == "application/xml",
		mediaType == "application/javascript":
		return true
	}
	return false
}
