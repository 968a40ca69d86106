// Package fetch is the client of the diagram server: it posts a specification
// and unpacks the returned archive.
package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/server"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
	"github.com/ariel-frischer/openapi-diagram/internal/version"
)

// ErrServer is matched by StatusError.
var ErrServer = errors.New("diagram server error")

// StatusError reports a non-200 response from the diagram server.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("diagram server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("diagram server returned %d", e.StatusCode)
}

// Is makes errors.Is(err, ErrServer) succeed.
func (e *StatusError) Is(target error) bool { return target == ErrServer }

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a diagram server.
type Client struct {
	baseURL string
	http    Doer
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Timeouts are the caller's concern.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "fetch")
	return c
}

// Fetch renders req remotely and writes the diagrams to req.OutputPath. In
// single mode the first archive entry becomes the output file; in split mode
// every entry is extracted into the output directory. It returns the written
// paths.
func (c *Client) Fetch(ctx context.Context, req renderer.Request) ([]string, error) {
	mode, err := renderer.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	format, err := renderer.ParseFormat(string(req.Format))
	if err != nil {
		return nil, err
	}
	if _, err := staging.FormatOf(req.SpecPath); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(req.SpecPath)
	if err != nil {
		return nil, fmt.Errorf("reading specification: %w", err)
	}

	archive, err := c.post(ctx, server.CreateDiagramRequest{
		FileName:      filepath.Base(req.SpecPath),
		FileContent:   string(content),
		Mode:          string(mode),
		DiagramFormat: string(format),
	})
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("reading diagram archive: %w", err)
	}
	if mode == renderer.ModeSingle {
		return extractFirst(zr, req.OutputPath)
	}
	return extractAll(zr, req.OutputPath)
}

func (c *Client) post(ctx context.Context, body server.CreateDiagramRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + server.CreateDiagramsPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("requesting diagrams", "url", url, "file", body.FileName, "mode", body.Mode)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("requesting diagrams from %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var detail server.ErrorResponse
		_ = json.Unmarshal(data, &detail)
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}
	return data, nil
}

func extractFirst(zr *zip.Reader, output string) ([]string, error) {
	if len(zr.File) == 0 {
		return nil, errors.New("diagram archive is empty")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeEntry(zr.File[0], output); err != nil {
		return nil, err
	}
	return []string{output}, nil
}

func extractAll(zr *zip.Reader, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(target, root+string(filepath.Separator)) {
			return written, fmt.Errorf("archive entry %q escapes the output directory", f.Name)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, err
		}
		if err := writeEntry(f, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func writeEntry(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return out.Close()
}
