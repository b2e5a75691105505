// Package lambdaproxy serves an http.Handler from API Gateway proxy events,
// so the same router runs behind Lambda and as a plain HTTP server.
package lambdaproxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// Adapter converts proxy events into requests for handler.
type Adapter struct {
	handler http.Handler
	logger  *logging.Logger
}

// New returns an Adapter serving handler. It panics if handler is nil.
func New(handler http.Handler, logger *logging.Logger) *Adapter {
	if handler == nil {
		panic("lambdaproxy: handler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{handler: handler, logger: logger}
}

// Handle serves a REST API (v1) proxy event, the shape Netlify functions use.
func (a *Adapter) Handle(ctx context.Context, evt events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	query := url.Values{}
	for k, vs := range evt.MultiValueQueryStringParameters {
		query[k] = append([]string(nil), vs...)
	}
	for k, v := range evt.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	header := http.Header{}
	for k, vs := range evt.MultiValueHeaders {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	for k, v := range evt.Headers {
		if header.Get(k) == "" {
			header.Set(k, v)
		}
	}

	rw, ok := a.serve(ctx, evt.HTTPMethod, evt.Path, query.Encode(), header, evt.Body, evt.IsBase64Encoded, evt.RequestContext.Identity.SourceIP)
	if !ok {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json", "Access-Control-Allow-Origin": "*"},
			Body:       `{"error":"Invalid request body"}`,
		}, nil
	}

	body, encoded := rw.encodedBody()
	return events.APIGatewayProxyResponse{
		StatusCode:        rw.statusCode(),
		Headers:           rw.singleHeaders(),
		MultiValueHeaders: rw.header,
		Body:              body,
		IsBase64Encoded:   encoded,
	}, nil
}

// HandleV2 serves an HTTP API (v2) proxy event.
func (a *Adapter) HandleV2(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	path := evt.RawPath
	if path == "" {
		path = evt.RequestContext.HTTP.Path
	}

	header := http.Header{}
	for k, v := range evt.Headers {
		header.Set(k, v)
	}
	for _, c := range evt.Cookies {
		header.Add("Cookie", c)
	}

	rw, ok := a.serve(ctx, evt.RequestContext.HTTP.Method, path, evt.RawQueryString, header, evt.Body, evt.IsBase64Encoded, evt.RequestContext.HTTP.SourceIP)
	if !ok {
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json", "Access-Control-Allow-Origin": "*"},
			Body:       `{"error":"Invalid request body"}`,
		}, nil
	}

	body, encoded := rw.encodedBody()
	return events.APIGatewayV2HTTPResponse{
		StatusCode:        rw.statusCode(),
		Headers:           rw.singleHeaders(),
		MultiValueHeaders: rw.header,
		Body:              body,
		IsBase64Encoded:   encoded,
	}, nil
}

func (a *Adapter) serve(ctx context.Context, method, path, rawQuery string, header http.Header, body string, isBase64 bool, sourceIP string) (*responseWriter, bool) {
	payload := []byte(body)
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			a.logger.Warn("lambdaproxy: invalid base64 body", "error", err, "path", path)
			return nil, false
		}
		payload = decoded
	}

	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path, RawQuery: rawQuery}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.RequestURI(), bytes.NewReader(payload))
	if err != nil {
		a.logger.Warn("lambdaproxy: invalid request", "error", err, "path", path)
		return nil, false
	}
	req.Header = header
	req.Host = header.Get("Host")
	if sourceIP != "" {
		req.RemoteAddr = sourceIP
		if req.Header.Get("X-Forwarded-For") == "" {
			req.Header.Set("X-Forwarded-For", sourceIP)
		}
	}

	rw := newResponseWriter()
	a.handler.ServeHTTP(rw, req)
	return rw, true
}
