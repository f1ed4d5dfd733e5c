package s3

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func newTransfer(t *testing.T, function string, args map[string]cty.Value) (module.Runnable, error) {
	t.Helper()
	m := &Module{}
	inst, err := m.factory("", module.Arguments{Settings: module.Settings{Function: function, Args: cty.ObjectVal(args)}})
	if err != nil {
		return nil, err
	}
	return inst.(module.Runnable), nil
}

func TestUpload(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"ok":true}`), 0o644))

	tr, err := newTransfer(t, "upload", map[string]cty.Value{
		"source_path": cty.StringVal(src),
		"upload_url":  cty.StringVal(srv.URL + "/bucket/report.json"),
	})
	require.NoError(t, err)

	res, err := tr.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, true, res.(map[string]any)["success"])
	assert.Equal(t, `{"ok":true}`, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestUpload_RejectedIsFalsy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	tr, err := newTransfer(t, "", map[string]cty.Value{
		"action":      cty.StringVal("UPLOAD"),
		"source_path": cty.StringVal(src),
		"upload_url":  cty.StringVal(srv.URL),
	})
	require.NoError(t, err)

	res, err := tr.Run(testContext())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestUpload_MissingFileIsModuleError(t *testing.T) {
	tr, err := newTransfer(t, "upload", map[string]cty.Value{
		"source_path": cty.StringVal(filepath.Join(t.TempDir(), "missing")),
		"upload_url":  cty.StringVal("http://127.0.0.1:1"),
	})
	require.NoError(t, err)

	_, err = tr.Run(testContext())
	assert.ErrorContains(t, err, "failed to open source file")
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.txt")
	tr, err := newTransfer(t, "download", map[string]cty.Value{
		"dest_path":    cty.StringVal(dest),
		"download_url": cty.StringVal(srv.URL),
	})
	require.NoError(t, err)

	res, err := tr.Run(testContext())
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.(map[string]any)["size"])

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
}

func TestFactory_Errors(t *testing.T) {
	_, err := newTransfer(t, "delete", map[string]cty.Value{})
	assert.ErrorContains(t, err, "unknown s3 action: 'delete'")

	_, err = newTransfer(t, "upload", map[string]cty.Value{"source_path": cty.StringVal("a")})
	assert.ErrorContains(t, err, "upload_url")

	_, err = newTransfer(t, "download", map[string]cty.Value{})
	assert.ErrorContains(t, err, "dest_path")
}
