package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/grablist/internal/utils"
)

func newTestExecutor(t *testing.T, timeout time.Duration, insecure bool) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	client := utils.NewGrablistHTTPClient(utils.HTTPClientConfig{
		Timeout:     timeout,
		InsecureTLS: insecure,
	})
	executor, err := NewExecutor(client, filepath.Join(dir, utils.TempDirName))
	require.NoError(t, err)
	return executor, dir
}

func assertTempEmpty(t *testing.T, dir string) {
	t.Helper()
	files, err := os.ReadDir(filepath.Join(dir, utils.TempDirName))
	require.NoError(t, err)
	assert.Empty(t, files, "temp directory should hold no leftovers")
}

func TestFetchSuccess(t *testing.T) {
	content := []byte("some file content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	executor, dir := newTestExecutor(t, 5*time.Second, false)
	dest := filepath.Join(dir, "a.txt")
	n, err := executor.Fetch(utils.Task{URL: server.URL + "/a.txt", OutputPath: dest})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assertTempEmpty(t, dir)
}

func TestFetchHTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	executor, dir := newTestExecutor(t, 5*time.Second, false)
	dest := filepath.Join(dir, "missing.txt")
	_, err := executor.Fetch(utils.Task{URL: server.URL + "/missing.txt", OutputPath: dest})
	require.Error(t, err)

	var serr *HTTPStatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.Code)
	assert.Equal(t, utils.KindHTTPStatus, utils.KindOf(err))
	assert.NoFileExists(t, dest)
	assertTempEmpty(t, dir)
}

func TestFetchConnectError(t *testing.T) {
	executor, dir := newTestExecutor(t, time.Second, false)
	dest := filepath.Join(dir, "x")
	_, err := executor.Fetch(utils.Task{URL: "http://127.0.0.1:1/x", OutputPath: dest})
	require.Error(t, err)

	var nerr *NetworkError
	assert.ErrorAs(t, err, &nerr)
	assert.NoFileExists(t, dest)
}

func TestFetchFirstByteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	executor, dir := newTestExecutor(t, 300*time.Millisecond, false)
	dest := filepath.Join(dir, "slow")
	start := time.Now()
	_, err := executor.Fetch(utils.Task{URL: server.URL, OutputPath: dest})
	elapsed := time.Since(start)

	require.Error(t, err)
	var nerr *NetworkError
	assert.ErrorAs(t, err, &nerr)
	assert.Less(t, elapsed, 3*time.Second, "timeout must fire within a bounded grace period")
	assert.NoFileExists(t, dest)
}

func TestFetchSlowBodyIsNotCutOff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("first"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(600 * time.Millisecond)
		w.Write([]byte("-rest"))
	}))
	defer server.Close()

	// timeout shorter than the mid-body stall: only the wait for the
	// first byte is bounded, not the whole transfer
	executor, dir := newTestExecutor(t, 300*time.Millisecond, false)
	dest := filepath.Join(dir, "streamed")
	n, err := executor.Fetch(utils.Task{URL: server.URL, OutputPath: dest})
	require.NoError(t, err)
	assert.Equal(t, int64(len("first-rest")), n)
}

func TestFetchTruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.Write([]byte("short"))
	}))
	defer server.Close()

	executor, dir := newTestExecutor(t, 5*time.Second, false)
	dest := filepath.Join(dir, "truncated")
	_, err := executor.Fetch(utils.Task{URL: server.URL, OutputPath: dest})
	require.Error(t, err)
	assert.Equal(t, utils.KindNetwork, utils.KindOf(err))
	assert.NoFileExists(t, dest)
	assertTempEmpty(t, dir)
}

func TestFetchTLSVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "secret")
	}))
	defer server.Close()

	// self-signed certificate fails with verification on
	executor, dir := newTestExecutor(t, 5*time.Second, false)
	_, err := executor.Fetch(utils.Task{URL: server.URL, OutputPath: filepath.Join(dir, "tls")})
	require.Error(t, err)
	assert.Equal(t, utils.KindNetwork, utils.KindOf(err))

	// and succeeds with --insecure
	executor, dir = newTestExecutor(t, 5*time.Second, true)
	dest := filepath.Join(dir, "tls")
	n, err := executor.Fetch(utils.Task{URL: server.URL, OutputPath: dest})
	require.NoError(t, err)
	assert.Equal(t, int64(len("secret")), n)
	assert.FileExists(t, dest)
}
