package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 records PutObject requests made in path-style addressing.
type fakeS3 struct {
	mu     sync.Mutex
	path   string
	body   []byte
	ctype  string
	status int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method == http.MethodPut {
		f.path = r.URL.Path
		f.ctype = r.Header.Get("Content-Type")
		f.body, _ = io.ReadAll(r.Body)
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newTestArchiver(t *testing.T, srv *httptest.Server) *Archiver {
	t.Helper()
	client, err := New(context.Background(), ClientConfig{
		Endpoint:       srv.URL,
		Region:         "us-east-1",
		Bucket:         "signals",
		AccessKey:      "test",
		SecretKey:      "test",
		ForcePathStyle: true,
	})
	require.NoError(t, err)
	return NewArchiver(client)
}

func TestRunKey(t *testing.T) {
	started := time.Date(2023, 7, 4, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, "runs/2023/07/05/abc.json", RunKey("abc", started))
}

func TestArchiver_ArchiveRun(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	archiver := newTestArchiver(t, srv)
	started := time.Date(2023, 7, 4, 12, 0, 0, 0, time.UTC)

	key, err := archiver.ArchiveRun(context.Background(), "run-1", started, map[string]int{"accepted": 3})
	require.NoError(t, err)
	assert.Equal(t, "runs/2023/07/04/run-1.json", key)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "/signals/runs/2023/07/04/run-1.json", fake.path)
	assert.Equal(t, "application/json", fake.ctype)

	var got map[string]int
	require.NoError(t, json.Unmarshal(fake.body, &got))
	assert.Equal(t, 3, got["accepted"])
}

func TestArchiver_PutFailure(t *testing.T) {
	fake := &fakeS3{status: http.StatusForbidden}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	archiver := newTestArchiver(t, srv)
	_, err := archiver.ArchiveRun(context.Background(), "run-1", time.Now(), struct{}{})
	assert.Error(t, err)
}

func TestNew_RequiresBucketAndRegion(t *testing.T) {
	_, err := New(context.Background(), ClientConfig{Region: "us-east-1"})
	assert.Error(t, err)
	_, err = New(context.Background(), ClientConfig{Bucket: "b"})
	assert.Error(t, err)
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
	assert.Equal(t, "http://x", normaliseEndpoint("http://x", true))
}
