// Package server exposes diagram rendering over HTTP. A client posts a
// specification and receives the rendered diagrams as a zip archive.
package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

// CreateDiagramsPath is the endpoint rendering diagrams.
const CreateDiagramsPath = "/api/v1/create-diagrams"

// ZipContentType is the media type of the create-diagrams response.
const ZipContentType = "application/x-zip-compressed"

const (
	defaultMaxBodyBytes = 16 << 20
	shutdownTimeout     = 10 * time.Second
)

// Renderer renders a request. *renderer.Invoker implements it.
type Renderer interface {
	Render(ctx context.Context, req renderer.Request) ([]string, error)
}

// CreateDiagramRequest is the JSON body of a create-diagrams call.
type CreateDiagramRequest struct {
	FileName      string `json:"fileName"`
	FileContent   string `json:"fileContent"`
	Mode          string `json:"mode"`
	DiagramFormat string `json:"diagramFormat"`
}

// ErrorResponse is the JSON body returned with every non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Server serves the diagram API.
type Server struct {
	renderer     Renderer
	logger       *slog.Logger
	maxBodyBytes int64
	tempDir      string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// WithTempDir sets the parent of per-request work directories.
func WithTempDir(dir string) Option {
	return func(s *Server) { s.tempDir = dir }
}

// New creates a Server rendering with r.
func New(r Renderer, opts ...Option) *Server {
	s := &Server{
		renderer:     r,
		logger:       slog.Default(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+CreateDiagramsPath, s.handleCreateDiagrams)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, when non-nil, receives the bound address.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, ready)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ready func(net.Addr)) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.logger.Info("serving", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCreateDiagrams(w http.ResponseWriter, r *http.Request) {
	var body CreateDiagramRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	mode, format, err := body.validate()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	archive, err := s.render(r.Context(), body, mode, format)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("rendering failed", "file", body.FileName, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	stem := strings.TrimSuffix(body.FileName, filepath.Ext(body.FileName))
	w.Header().Set("Content-Type", ZipContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", stem+".zip"))
	w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive); err != nil {
		s.logger.Debug("writing response", "error", err)
	}
}

// validate checks the request before anything touches the filesystem.
func (b *CreateDiagramRequest) validate() (renderer.Mode, renderer.Format, error) {
	name := filepath.Base(filepath.Clean(b.FileName))
	if b.FileName == "" || name != b.FileName || name == "." || name == ".." {
		return "", "", fmt.Errorf("fileName must be a plain file name, got %q", b.FileName)
	}
	format, err := staging.FormatOf(name)
	if err != nil {
		return "", "", fmt.Errorf("only the following extensions are supported: '.json, .yaml, .yml' but got %q", name)
	}
	if _, err := staging.LoadBytes([]byte(b.FileContent), format); err != nil {
		return "", "", err
	}
	mode, err := renderer.ParseMode(b.Mode)
	if err != nil {
		return "", "", err
	}
	diagramFormat, err := renderer.ParseFormat(b.DiagramFormat)
	if err != nil {
		return "", "", err
	}
	return mode, diagramFormat, nil
}

// render writes the specification into a scratch directory, renders it and
// zips the results.
func (s *Server) render(ctx context.Context, body CreateDiagramRequest, mode renderer.Mode, format renderer.Format) ([]byte, error) {
	workDir, err := os.MkdirTemp(s.tempDir, "openapi-diagram")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	specPath := filepath.Join(workDir, body.FileName)
	if err := os.WriteFile(specPath, []byte(body.FileContent), 0o644); err != nil {
		return nil, fmt.Errorf("writing specification: %w", err)
	}

	outputPath := filepath.Join(workDir, "output")
	if mode == renderer.ModeSingle {
		stem := strings.TrimSuffix(body.FileName, filepath.Ext(body.FileName))
		outputPath = filepath.Join(outputPath, stem+"."+strings.ToLower(string(format)))
	}

	files, err := s.renderer.Render(ctx, renderer.Request{
		SpecPath:   specPath,
		OutputPath: outputPath,
		Mode:       mode,
		Format:     format,
	})
	if err != nil {
		return nil, err
	}

	base := outputPath
	if mode == renderer.ModeSingle {
		base = filepath.Dir(outputPath)
	}
	return zipFiles(base, files)
}

// zipFiles archives files under names relative to base.
func zipFiles(base string, files []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, file := range files {
		name, err := filepath.Rel(base, file)
		if err != nil {
			name = filepath.Base(file)
		}
		if err := addFile(zw, filepath.ToSlash(name), file); err != nil {
			zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finishing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, renderer.ErrInvalidArgument), errors.Is(err, staging.ErrUnsupportedFileFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, renderer.ErrMissingDependency):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
