// Package http_request performs a single HTTP request per step attempt.
//
// Arguments:
//
//	url            target URL; when absent a string input is used instead
//	method         HTTP method, GET by default
//	headers        map of request headers
//	body           string sent verbatim, or any other value sent as JSON
//	body_from_input send the threaded input as a JSON body
//	timeout        request timeout as a Go duration, 10s by default
//	expect_status  exact status code that counts as success; any 2xx otherwise
//
// The result is an object with status_code, body, headers and, for JSON
// responses, json. Transport failures and unexpected status codes produce a
// nil result so the step is retried; malformed arguments are module errors.
package http_request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/ctyconv"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// Name is the identifier the module is registered under.
const Name = "http_request"

const defaultTimeout = 10 * time.Second

// sharedTransport is reused by every request so connections are pooled across
// steps and agents.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Transport overrides the shared transport, mainly for tests.
	Transport http.RoundTripper
}

// Request is one configured HTTP call.
type Request struct {
	client       *http.Client
	method       string
	url          string
	headers      map[string]string
	body         []byte
	contentType  string
	expectStatus int
}

// Run executes the request.
func (r *Request) Run(ctx context.Context) (module.Result, error) {
	logger := ctxlog.FromContext(ctx).With("method", r.method, "url", r.url)
	logger.Info("Making HTTP request")

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("HTTP request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("Failed to read response body", "status", resp.Status, "error", err)
		return nil, nil
	}
	logger.Info("Received HTTP response", "status", resp.Status, "bytes", len(bodyBytes))

	if !r.statusOK(resp.StatusCode) {
		logger.Warn("Unexpected HTTP status", "status", resp.Status)
		return nil, nil
	}

	headers := make(map[string]any, len(resp.Header))
	for k := range resp.Header {
		headers[strings.ToLower(k)] = resp.Header.Get(k)
	}
	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(bodyBytes),
		"headers":     headers,
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var decoded any
		if err := json.Unmarshal(bodyBytes, &decoded); err == nil {
			result["json"] = decoded
		}
	}
	return result, nil
}

func (r *Request) statusOK(code int) bool {
	if r.expectStatus != 0 {
		return code == r.expectStatus
	}
	return code >= 200 && code < 300
}

func (m *Module) factory(_ string, args module.Arguments) (any, error) {
	s := args.Settings

	url, err := s.StringArg("url", "")
	if err != nil {
		return nil, err
	}
	if url == "" {
		in, ok := s.Input.(string)
		if !ok || in == "" {
			return nil, fmt.Errorf("argument \"url\" is required when the input is not a URL string")
		}
		url = in
	}

	method, err := s.StringArg("method", http.MethodGet)
	if err != nil {
		return nil, err
	}

	timeoutStr, err := s.StringArg("timeout", "")
	if err != nil {
		return nil, err
	}
	timeout := defaultTimeout
	if timeoutStr != "" {
		if timeout, err = time.ParseDuration(timeoutStr); err != nil {
			return nil, fmt.Errorf("argument \"timeout\": %w", err)
		}
	}

	headers := map[string]string{}
	rawHeaders, err := s.AnyArg("headers")
	if err != nil {
		return nil, err
	}
	if rawHeaders != nil {
		hm, ok := rawHeaders.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("argument \"headers\" must be an object")
		}
		for k, v := range hm {
			headers[k] = fmt.Sprint(v)
		}
	}

	body, contentType, err := requestBody(s)
	if err != nil {
		return nil, err
	}

	expect := 0
	if v, ok := s.Arg("expect_status"); ok {
		n, err := s.AnyArg("expect_status")
		if err != nil {
			return nil, err
		}
		code, isInt := n.(int64)
		if !isInt {
			return nil, fmt.Errorf("argument \"expect_status\" must be a whole number, got %s", v.Type().FriendlyName())
		}
		expect = int(code)
	}

	transport := m.Transport
	if transport == nil {
		transport = sharedTransport
	}

	return &Request{
		client:       &http.Client{Timeout: timeout, Transport: transport},
		method:       strings.ToUpper(method),
		url:          url,
		headers:      headers,
		body:         body,
		contentType:  contentType,
		expectStatus: expect,
	}, nil
}

func requestBody(s module.Settings) ([]byte, string, error) {
	fromInput, err := s.BoolArg("body_from_input", false)
	if err != nil {
		return nil, "", err
	}
	if fromInput {
		b, err := json.Marshal(ctyconv.ForLogs(s.Input))
		if err != nil {
			return nil, "", fmt.Errorf("encode input as body: %w", err)
		}
		return b, "application/json", nil
	}

	raw, err := s.AnyArg("body")
	if err != nil || raw == nil {
		return nil, "", err
	}
	if str, ok := raw.(string); ok {
		return []byte(str), "text/plain; charset=utf-8", nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, "", fmt.Errorf("argument \"body\": %w", err)
	}
	return b, "application/json", nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, m.factory)
}
