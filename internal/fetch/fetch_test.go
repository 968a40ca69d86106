package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/server"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

var petstoreYAML = filepath.Join("..", "staging", "testdata", "petstore-3-0.yaml")

// diagramRenderer writes one file per requested diagram without java.
type diagramRenderer struct{}

func (diagramRenderer) Render(_ context.Context, req renderer.Request) ([]string, error) {
	if req.Mode == renderer.ModeSingle {
		if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
			return nil, err
		}
		return []string{req.OutputPath}, os.WriteFile(req.OutputPath, []byte("@startuml"), 0o644)
	}

	doc, err := staging.Load(req.SpecPath)
	if err != nil {
		return nil, err
	}
	ops, err := staging.Operations(doc)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.OutputPath, 0o755); err != nil {
		return nil, err
	}
	var files []string
	for _, op := range ops {
		path := filepath.Join(req.OutputPath, op+"."+strings.ToLower(string(req.Format)))
		if err := os.WriteFile(path, []byte(op), 0o644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func newDiagramServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(server.New(diagramRenderer{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSingle(t *testing.T) {
	t.Parallel()

	srv := newDiagramServer(t)
	output := filepath.Join(t.TempDir(), "nested", "diagram.svg")

	files, err := New(srv.URL+"/").Fetch(context.Background(), renderer.Request{
		SpecPath:   petstoreYAML,
		OutputPath: output,
		Mode:       renderer.ModeSingle,
		Format:     "svg",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{output}, files)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "@startuml", string(data))
}

func TestFetchSplit(t *testing.T) {
	t.Parallel()

	srv := newDiagramServer(t)
	output := t.TempDir()

	files, err := New(srv.URL).Fetch(context.Background(), renderer.Request{
		SpecPath:   petstoreYAML,
		OutputPath: output,
		Mode:       renderer.ModeSplit,
		Format:     renderer.FormatPUML,
	})
	require.NoError(t, err)
	assert.Len(t, files, 3)

	for _, name := range []string{"listPets.puml", "createPets.puml", "showPetById.puml"} {
		assert.FileExists(t, filepath.Join(output, name))
	}
}

func TestFetchErrors(t *testing.T) {
	t.Parallel()

	srv := newDiagramServer(t)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	tests := map[string]struct {
		baseURL  string
		req      renderer.Request
		timeout  time.Duration
		checkErr func(t *testing.T, err error)
	}{
		"invalid mode": {
			baseURL: srv.URL,
			req:     renderer.Request{SpecPath: petstoreYAML, OutputPath: "out", Mode: "both", Format: "SVG"},
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, renderer.ErrInvalidArgument)
			},
		},
		"unsupported spec": {
			baseURL: srv.URL,
			req:     renderer.Request{SpecPath: "petstore.txt", OutputPath: "out", Mode: "single", Format: "SVG"},
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, staging.ErrUnsupportedFileFormat)
			},
		},
		"timeout": {
			baseURL: slow.URL,
			req:     renderer.Request{SpecPath: petstoreYAML, OutputPath: "out", Mode: "single", Format: "SVG"},
			timeout: 50 * time.Millisecond,
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
			},
		},
		"not found": {
			baseURL: srv.URL + "/nope",
			req:     renderer.Request{SpecPath: petstoreYAML, OutputPath: "out", Mode: "single", Format: "SVG"},
			checkErr: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
				assert.ErrorIs(t, err, ErrServer)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			if tt.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.timeout)
				defer cancel()
			}
			tt.req.OutputPath = filepath.Join(t.TempDir(), tt.req.OutputPath)
			_, err := New(tt.baseURL).Fetch(ctx, tt.req)
			require.Error(t, err)
			tt.checkErr(t, err)
		})
	}
}

func TestFetchServerRejectsContent(t *testing.T) {
	t.Parallel()

	srv := newDiagramServer(t)
	spec := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(spec, []byte("{"), 0o644))

	_, err := New(srv.URL).Fetch(context.Background(), renderer.Request{
		SpecPath:   spec,
		OutputPath: filepath.Join(t.TempDir(), "out.svg"),
		Mode:       renderer.ModeSingle,
		Format:     renderer.FormatSVG,
	})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.Contains(t, statusErr.Detail, "parsing specification")
}

func TestStatusErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "diagram server returned 422: invalid mode", (&StatusError{StatusCode: 422, Detail: "invalid mode"}).Error())
	assert.Equal(t, "diagram server returned 502", (&StatusError{StatusCode: 502}).Error())
}
