package http_request

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func run(t *testing.T, input module.Result, args map[string]cty.Value) (module.Result, error) {
	t.Helper()
	m := &Module{}
	inst, err := m.factory("", module.Arguments{Settings: module.Settings{Input: input, Args: cty.ObjectVal(args)}})
	if err != nil {
		return nil, err
	}
	return inst.(module.Runnable).Run(testContext())
}

func TestRequest_JSONResponse(t *testing.T) {
	var gotMethod, gotBody, gotHeader, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Agent")
		gotContentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	res, err := run(t, nil, map[string]cty.Value{
		"url":     cty.StringVal(srv.URL + "/register"),
		"method":  cty.StringVal("post"),
		"headers": cty.ObjectVal(map[string]cty.Value{"X-Agent": cty.StringVal("probe")}),
		"body":    cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("probe")}),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "probe", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"name":"probe"}`, gotBody)

	out := res.(map[string]any)
	assert.Equal(t, http.StatusCreated, out["status_code"])
	assert.Equal(t, `{"token":"abc"}`, out["body"])
	assert.Equal(t, map[string]any{"token": "abc"}, out["json"])
	assert.Equal(t, "application/json", out["headers"].(map[string]any)["content-type"])
}

func TestRequest_UnexpectedStatusIsFalsy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res, err := run(t, nil, map[string]cty.Value{"url": cty.StringVal(srv.URL)})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, module.Truthy(res))
}

func TestRequest_ExpectStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := run(t, nil, map[string]cty.Value{
		"url":           cty.StringVal(srv.URL),
		"expect_status": cty.NumberIntVal(404),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.(map[string]any)["status_code"])

	_, err = run(t, nil, map[string]cty.Value{"url": cty.StringVal(srv.URL), "expect_status": cty.StringVal("ok")})
	assert.ErrorContains(t, err, "expect_status")
}

func TestRequest_URLAndBodyFromInput(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res, err := run(t, srv.URL, map[string]cty.Value{"method": cty.StringVal("PUT"), "body_from_input": cty.True})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.(map[string]any)["body"])
	assert.Equal(t, `"`+srv.URL+`"`, gotBody)
}

func TestRequest_TransportFailureIsFalsy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	res, err := run(t, nil, map[string]cty.Value{"url": cty.StringVal(url), "timeout": cty.StringVal("1s")})
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestFactory_ArgumentErrors(t *testing.T) {
	_, err := run(t, nil, map[string]cty.Value{})
	assert.ErrorContains(t, err, "argument \"url\" is required")

	_, err = run(t, nil, map[string]cty.Value{"url": cty.StringVal("http://x"), "timeout": cty.StringVal("soon")})
	assert.ErrorContains(t, err, "timeout")

	_, err = run(t, nil, map[string]cty.Value{"url": cty.StringVal("http://x"), "headers": cty.StringVal("nope")})
	assert.ErrorContains(t, err, "headers")
}
