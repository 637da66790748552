package scheduler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tanq16/grabbit/internal/index"
	"github.com/tanq16/grabbit/internal/utils"
)

func TestMain(m *testing.M) {
	utils.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func serveBytes(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write(body)
	}
}

func newImageServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.png", serveBytes("image/png", []byte("png-content-a")))
	mux.HandleFunc("/b.jpg", serveBytes("image/jpeg", []byte("jpeg-content-b")))
	mux.HandleFunc("/copy-of-a.png", serveBytes("image/png", []byte("png-content-a")))
	mux.HandleFunc("/page.html", serveBytes("text/html", []byte("<html></html>")))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunSummaryAndIndex(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()
	jobs := []Job{
		NewJob(server.URL+"/a.png", ""),
		NewJob(server.URL+"/b.jpg", ""),
		NewJob(server.URL+"/copy-of-a.png", ""),
		NewJob(server.URL+"/page.html", ""),
		NewJob(server.URL+"/missing.png", ""),
	}
	summary, err := Run(context.Background(), jobs, Options{OutputDir: dir})
	require.NoError(t, err)
	require.Equal(t, Summary{Saved: 2, Duplicates: 1, Failed: 2}, summary)

	idx := index.Load(filepath.Join(dir, index.Filename))
	require.Equal(t, 2, idx.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	require.ElementsMatch(t, []string{"a.png", "b.jpg", index.Filename}, names)
}

func TestRunNoIndex(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()
	jobs := []Job{
		NewJob(server.URL+"/a.png", ""),
		NewJob(server.URL+"/copy-of-a.png", ""),
	}
	summary, err := Run(context.Background(), jobs, Options{OutputDir: dir, NoIndex: true})
	require.NoError(t, err)
	// In-run dedup still applies, only persistence is off
	require.Equal(t, Summary{Saved: 1, Duplicates: 1}, summary)

	_, statErr := os.Stat(filepath.Join(dir, index.Filename))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunNameOverride(t *testing.T) {
	server := newImageServer(t)
	dir := t.TempDir()
	jobs := []Job{NewJob(server.URL+"/a.png", "hero image.png")}
	summary, err := Run(context.Background(), jobs, Options{OutputDir: dir})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Saved)

	_, statErr := os.Stat(filepath.Join(dir, "hero_image.png"))
	require.NoError(t, statErr)
}

func TestRunPolitenessDelay(t *testing.T) {
	var mu sync.Mutex
	var hits []time.Time
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pixels " + r.URL.Path))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jobs := []Job{
		NewJob(server.URL+"/1.png", ""),
		NewJob(server.URL+"/2.png", ""),
		NewJob(server.URL+"/3.png", ""),
	}
	_, err := Run(context.Background(), jobs, Options{OutputDir: t.TempDir(), Delay: 60 * time.Millisecond})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 3)
	require.GreaterOrEqual(t, hits[2].Sub(hits[0]), 100*time.Millisecond)
}

func TestRunCanceledContext(t *testing.T) {
	server := newImageServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		NewJob(server.URL+"/a.png", ""),
		NewJob(server.URL+"/b.jpg", ""),
	}
	summary, err := Run(ctx, jobs, Options{OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, Summary{Failed: 2}, summary)
}

func TestRunNoJobs(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{OutputDir: t.TempDir()})
	require.ErrorContains(t, err, "no URLs")
}

func TestNewJobAssignsID(t *testing.T) {
	a := NewJob("https://example.com/a.png", "")
	b := NewJob("https://example.com/b.png", "")
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}
