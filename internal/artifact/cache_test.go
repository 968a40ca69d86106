package artifact

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testBase    = "https://repo.example/maven2/openapi-to-plantuml"
	testVersion = "0.1.28"
	testJarURL  = testBase + "/" + testVersion + "/openapi-to-plantuml-0.1.28-jar-with-dependencies.jar"
)

var testJar = []byte("PK\x03\x04 fake renderer jar")

// fakeRepo serves canned responses by URL and counts requests.
type fakeRepo struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     map[string]int
}

type fakeResponse struct {
	status int
	body   []byte
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	index, err := os.ReadFile(filepath.Join("testdata", "index.html"))
	require.NoError(t, err)

	sum := md5.Sum(testJar)
	return &fakeRepo{
		responses: map[string]fakeResponse{
			testBase + "/" + testVersion: {status: http.StatusOK, body: index},
			testJarURL:                   {status: http.StatusOK, body: testJar},
			testJarURL + ".md5":          {status: http.StatusOK, body: []byte(hex.EncodeToString(sum[:]))},
		},
		calls: make(map[string]int),
	}
}

func (f *fakeRepo) set(url string, status int, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = fakeResponse{status: status, body: body}
}

func (f *fakeRepo) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	url := req.URL.String()
	f.calls[url]++
	resp, ok := f.responses[url]
	if !ok {
		resp = fakeResponse{status: http.StatusNotFound}
	}
	return &http.Response{
		StatusCode: resp.status,
		Body:       io.NopCloser(bytes.NewReader(resp.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (f *fakeRepo) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func newTestCache(t *testing.T, repo Doer) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), WithBaseURL(testBase+"/"), WithHTTPClient(repo))
	require.NoError(t, err)
	return c
}

func TestResolveDownloadsOnce(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	c := newTestCache(t, repo)

	first, err := c.Resolve(context.Background(), testVersion)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Root(), "openapi-to-plantuml-0.1.28.jar"), first)
	assert.Equal(t, 3, repo.total())

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, testJar, data)

	second, err := c.Resolve(context.Background(), testVersion)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3, repo.total(), "cache hit must not touch the network")
}

func TestResolveTrustsExistingFile(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	c := newTestCache(t, repo)
	require.NoError(t, os.WriteFile(c.Path(testVersion), []byte("anything"), 0o644))

	path, err := c.Resolve(context.Background(), testVersion)
	require.NoError(t, err)
	assert.Equal(t, c.Path(testVersion), path)
	assert.Zero(t, repo.total())
}

func TestResolveChecksumMismatchLeavesNoFile(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	repo.set(testJarURL+".md5", http.StatusOK, []byte("bad_md5"))
	c := newTestCache(t, repo)

	path, err := c.Resolve(context.Background(), testVersion)
	require.Error(t, err)
	assert.Empty(t, path)
	assert.ErrorIs(t, err, ErrDownloadVerification)
	assert.Equal(t, "Downloaded openapi-to-plantuml jar has invalid hash.", err.Error())

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "bad_md5", verr.Expected)

	assert.NoFileExists(t, c.Path(testVersion))
	leftovers, err := os.ReadDir(c.Root())
	require.NoError(t, err)
	assert.Empty(t, leftovers)
	assert.False(t, c.Has(testVersion))
}

func TestResolveChecksumFormats(t *testing.T) {
	t.Parallel()

	sum := md5.Sum(testJar)
	digest := hex.EncodeToString(sum[:])

	tests := map[string]struct {
		checksum string
		wantErr  bool
	}{
		"plain":              {checksum: digest},
		"upper case":         {checksum: strings.ToUpper(digest)},
		"trailing newline":   {checksum: digest + "\n"},
		"md5sum style":       {checksum: digest + "  openapi-to-plantuml.jar\n"},
		"empty":              {checksum: "", wantErr: true},
		"other digest":       {checksum: strings.Repeat("0", 32), wantErr: true},
		"digest as a suffix": {checksum: "x" + digest, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			repo := newFakeRepo(t)
			repo.set(testJarURL+".md5", http.StatusOK, []byte(tt.checksum))
			c := newTestCache(t, repo)

			_, err := c.Resolve(context.Background(), testVersion)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDownloadVerification)
				assert.NoFileExists(t, c.Path(testVersion))
				return
			}
			require.NoError(t, err)
			assert.FileExists(t, c.Path(testVersion))
		})
	}
}

func TestResolveLinkNotFound(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	page := `<html><body><a href="openapi-to-plantuml-0.1.28.pom">pom</a></body></html>`
	repo.set(testBase+"/"+testVersion, http.StatusOK, []byte(page))
	c := newTestCache(t, repo)

	_, err := c.Resolve(context.Background(), testVersion)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactLinkNotFound)
	assert.Equal(t, "Could not find openapi-to-plantuml download link in:\n"+page, err.Error())
	assert.Equal(t, 1, repo.total())
}

func TestResolveHTTPFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	repo.set(testJarURL, http.StatusInternalServerError, nil)
	c := newTestCache(t, repo)

	_, err := c.Resolve(context.Background(), testVersion)
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.NoFileExists(t, c.Path(testVersion))
}

func TestResolveConcurrentCallsShareDownload(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(t)
	c := newTestCache(t, repo)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	errs := make([]error, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = c.Resolve(context.Background(), testVersion)
		}(i)
	}
	wg.Wait()

	for i := range paths {
		require.NoError(t, errs[i])
		assert.Equal(t, c.Path(testVersion), paths[i])
	}
	assert.Equal(t, 1, repo.calls[testJarURL])
}

// gatedRepo holds jar downloads until release is closed, honoring the
// request context while it waits.
type gatedRepo struct {
	*fakeRepo
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedRepo) Do(req *http.Request) (*http.Response, error) {
	if req.URL.String() == testJarURL {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	return g.fakeRepo.Do(req)
}

func TestResolveCancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	repo := &gatedRepo{
		fakeRepo: newFakeRepo(t),
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	c := newTestCache(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(ctx, testVersion)
		firstErr <- err
	}()
	<-repo.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.Resolve(context.Background(), testVersion)
		secondErr <- err
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(repo.release)
	require.NoError(t, <-secondErr)
	assert.True(t, c.Has(testVersion))
	assert.Equal(t, 1, repo.calls[testJarURL])
}

func TestInvalidVersions(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, newFakeRepo(t))
	for _, v := range []string{"", ".", "..", "../0.1.28", "a/b", `a\b`} {
		_, err := c.Resolve(context.Background(), v)
		assert.ErrorIs(t, err, ErrInvalidVersion, "version %q", v)
		_, err = c.Remove(v)
		assert.ErrorIs(t, err, ErrInvalidVersion, "version %q", v)
		assert.False(t, c.Has(v))
	}
}

func TestListAndRemove(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, newFakeRepo(t))
	for _, v := range []string{"0.1.27", "0.1.28"} {
		require.NoError(t, os.WriteFile(c.Path(v), []byte(v), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(c.Root(), "notes.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(c.Root(), "openapi-to-plantuml-dir.jar"), 0o755))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0.1.27", entries[0].Version)
	assert.Equal(t, c.Path("0.1.28"), entries[1].Path)

	removed, err := c.Remove("0.1.27")
	require.NoError(t, err)
	assert.Equal(t, c.Path("0.1.27"), removed)

	_, err = c.Remove("0.1.27")
	assert.ErrorIs(t, err, ErrNotCached)

	all, err := c.RemoveAll()
	require.NoError(t, err)
	assert.Equal(t, []string{c.Path("0.1.28")}, all)

	entries, err = c.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, filepath.Join(c.Root(), "notes.txt"))
}

func TestNewCreatesRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "nested", "cache")
	c, err := New(root)
	require.NoError(t, err)
	assert.DirExists(t, root)
	assert.Equal(t, root, c.Root())

	_, err = New("")
	assert.Error(t, err)
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		page string
		want string
	}{
		"relative link": {
			page: `<a href="x-jar-with-dependencies.jar">jar</a>`,
			want: testBase + "/" + testVersion + "/x-jar-with-dependencies.jar",
		},
		"absolute link": {
			page: `<a href="https://mirror.example/x-jar-with-dependencies.jar">jar</a>`,
			want: "https://mirror.example/x-jar-with-dependencies.jar",
		},
		"first match wins": {
			page: `<a href="a.jar.md5">a</a><a class="x" href="one-with-dependencies.jar"/><a href="two-with-dependencies.jar">`,
			want: testBase + "/" + testVersion + "/one-with-dependencies.jar",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			repo := newFakeRepo(t)
			repo.set(testBase+"/"+testVersion, http.StatusOK, []byte(tt.page))
			c := newTestCache(t, repo)

			got, err := c.DownloadURL(context.Background(), testVersion)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestVersion(t *testing.T) {
	t.Parallel()

	metadata, err := os.ReadFile(filepath.Join("testdata", "maven-metadata.xml"))
	require.NoError(t, err)

	tests := map[string]struct {
		body    string
		status  int
		want    string
		wantErr error
	}{
		"metadata": {
			body:   string(metadata),
			status: http.StatusOK,
			want:   "0.1.28",
		},
		"missing latest": {
			body:    "<metadata><versioning><release>0.1.28</release></versioning></metadata>",
			status:  http.StatusOK,
			wantErr: ErrVersionNotFound,
		},
		"empty latest": {
			body:    "<metadata><latest> </latest></metadata>",
			status:  http.StatusOK,
			wantErr: ErrVersionNotFound,
		},
		"not xml": {
			body:    "not found",
			status:  http.StatusOK,
			wantErr: ErrVersionNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/maven2/maven-metadata.xml" {
					http.NotFound(w, r)
					return
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(t.TempDir(), WithBaseURL(srv.URL+"/maven2"), WithHTTPClient(srv.Client()))
			require.NoError(t, err)

			got, err := c.LatestVersion(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "Could not find openapi-to-plantuml version in 'maven-metadata.xml':\n")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
