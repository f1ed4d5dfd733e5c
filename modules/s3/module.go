// Package s3 moves files to and from object storage through pre-signed URLs.
// The step's function selects the action ("upload" or "download"); the
// "action" argument is accepted as a fallback.
package s3

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/chainrunner/internal/ctxlog"
	"github.com/specialistvlad/chainrunner/internal/module"
	"github.com/specialistvlad/chainrunner/internal/registry"
)

// Name is the identifier the module is registered under.
const Name = "s3"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client overrides the shared HTTP client, mainly for tests.
	Client *http.Client
}

// httpClient is a shared client for all S3 transfers to reuse TCP connections.
var httpClient = &http.Client{}

// Transfer is a single upload or download.
type Transfer struct {
	client     *http.Client
	action     string
	sourcePath string
	destPath   string
	url        string
}

// Run performs the transfer. Rejected requests and transport failures yield a
// nil result so the step is retried; local file errors are module errors.
func (t *Transfer) Run(ctx context.Context) (module.Result, error) {
	switch t.action {
	case "upload":
		return t.upload(ctx)
	case "download":
		return t.download(ctx)
	default:
		return nil, fmt.Errorf("unknown s3 action: '%s'", t.action)
	}
}

func (t *Transfer) upload(ctx context.Context) (module.Result, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(t.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file '%s': %w", t.sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", t.sourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.url, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(t.sourcePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3", "source", t.sourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("S3 upload request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("S3 upload rejected", "status", resp.Status)
		return nil, nil
	}

	logger.Info("Successfully uploaded file", "status", resp.Status)
	return map[string]any{
		"success": true,
		"status":  resp.Status,
		"size":    stat.Size(),
	}, nil
}

func (t *Transfer) download(ctx context.Context) (module.Result, error) {
	logger := ctxlog.FromContext(ctx).With("action", "download")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 download request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("S3 download request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("S3 download rejected", "status", resp.Status)
		return nil, nil
	}

	file, err := os.Create(t.destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file '%s': %w", t.destPath, err)
	}
	n, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		logger.Warn("S3 download interrupted", "error", copyErr)
		return nil, nil
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to write destination file '%s': %w", t.destPath, closeErr)
	}

	logger.Info("Successfully downloaded file", "dest", t.destPath, "size", n)
	return map[string]any{
		"success": true,
		"status":  resp.Status,
		"size":    n,
		"path":    t.destPath,
	}, nil
}

func (m *Module) factory(_ string, args module.Arguments) (any, error) {
	s := args.Settings

	action := strings.ToLower(s.Function)
	if action == "" {
		a, err := s.StringArg("action", "")
		if err != nil {
			return nil, err
		}
		action = strings.ToLower(a)
	}

	t := &Transfer{client: m.Client, action: action}
	if t.client == nil {
		t.client = httpClient
	}

	var err error
	switch action {
	case "upload":
		if t.sourcePath, err = s.StringArg("source_path", ""); err != nil {
			return nil, err
		}
		if t.url, err = s.StringArg("upload_url", ""); err != nil {
			return nil, err
		}
		if t.sourcePath == "" || t.url == "" {
			return nil, fmt.Errorf("s3 upload requires \"source_path\" and \"upload_url\"")
		}
	case "download":
		if t.destPath, err = s.StringArg("dest_path", ""); err != nil {
			return nil, err
		}
		if t.url, err = s.StringArg("download_url", ""); err != nil {
			return nil, err
		}
		if t.destPath == "" || t.url == "" {
			return nil, fmt.Errorf("s3 download requires \"dest_path\" and \"download_url\"")
		}
	default:
		return nil, fmt.Errorf("unknown s3 action: '%s'", action)
	}
	return t, nil
}

// Register registers the module with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Name, m.factory)
}
