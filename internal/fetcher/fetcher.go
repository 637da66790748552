package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tanq16/grabbit/internal/index"
	"github.com/tanq16/grabbit/internal/utils"
)

const (
	TempSuffix       = ".part"
	DefaultMaxBytes  = 10 * 1024 * 1024
	defaultChunkSize = 32 * 1024
	fallbackExt      = ".img"
)

// DefaultAllowedTypes maps the accepted image MIME types to the extension
// appended when a filename has none.
func DefaultAllowedTypes() map[string]string {
	return map[string]string{
		"image/jpeg":    ".jpg",
		"image/png":     ".png",
		"image/gif":     ".gif",
		"image/webp":    ".webp",
		"image/svg+xml": ".svg",
		"image/bmp":     ".bmp",
		"image/tiff":    ".tiff",
	}
}

type Config struct {
	OutputDir    string
	MaxBytes     int64
	ChunkSize    int
	AllowedTypes map[string]string
}

type Request struct {
	URL      string
	Filename string // optional name override, sanitized before use
}

type Result struct {
	Path        string
	Filename    string
	Digest      string
	Size        int64
	ContentType string
}

type Fetcher struct {
	client utils.HTTPDoer
	config Config
	index  *index.Index
	log    zerolog.Logger
}

func New(client utils.HTTPDoer, config Config, idx *index.Index) *Fetcher {
	if config.MaxBytes <= 0 {
		config.MaxBytes = DefaultMaxBytes
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	if config.AllowedTypes == nil {
		config.AllowedTypes = DefaultAllowedTypes()
	}
	return &Fetcher{
		client: client,
		config: config,
		index:  idx,
		log:    utils.GetLogger("fetcher"),
	}
}

// Fetch downloads one image: validates the response headers, streams the
// body to a temp file while hashing, rejects duplicates against the index
// and finalizes under a collision-free name.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("request error: %v", err)
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &HTTPError{Status: resp.StatusCode}
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	ext, allowed := f.config.AllowedTypes[contentType]
	if !strings.HasPrefix(contentType, "image/") || !allowed {
		return Result{}, fmt.Errorf("%w: %q", ErrDisallowedType, contentType)
	}
	if declared, ok := declaredLength(resp.Header.Get("Content-Length")); ok && declared > f.config.MaxBytes {
		return Result{}, fmt.Errorf("%w: declared %d bytes (limit %d)", ErrDeclaredTooLarge, declared, f.config.MaxBytes)
	}

	filename := resolveFilename(req, httpReq, resp)
	if filepath.Ext(filename) == "" {
		if ext == "" {
			ext = fallbackExt
		}
		filename += ext
	}
	f.log.Debug().Msgf("Validated %s (%s), writing as %s", req.URL, contentType, filename)

	tempPath := filepath.Join(f.config.OutputDir, filename+TempSuffix)
	outFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return Result{}, fmt.Errorf("error creating temp file: %v", err)
	}
	discard := func() {
		outFile.Close()
		os.Remove(tempPath)
	}

	hasher := sha256.New()
	var written int64
	buffer := make([]byte, f.config.ChunkSize)
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := outFile.Write(buffer[:bytesRead]); writeErr != nil {
				discard()
				return Result{}, fmt.Errorf("error writing to temp file: %v", writeErr)
			}
			hasher.Write(buffer[:bytesRead])
			written += int64(bytesRead)
			if written > f.config.MaxBytes {
				discard()
				return Result{}, fmt.Errorf("%w (limit %d bytes)", ErrSizeExceeded, f.config.MaxBytes)
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			discard()
			return Result{}, fmt.Errorf("error reading response body: %v", readErr)
		}
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tempPath)
		return Result{}, fmt.Errorf("error closing temp file: %v", err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if existing, ok := f.index.Lookup(digest); ok {
		os.Remove(tempPath)
		f.log.Debug().Msgf("Discarded %s, digest %s already present", req.URL, digest[:12])
		return Result{}, &DuplicateError{Filename: existing.Filename, URL: existing.URL}
	}

	finalPath := uniquePath(f.config.OutputDir, filename)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return Result{}, fmt.Errorf("failed to finalize output file: %v", err)
	}
	result := Result{
		Path:        finalPath,
		Filename:    filepath.Base(finalPath),
		Digest:      digest,
		Size:        written,
		ContentType: contentType,
	}
	f.index.Insert(digest, index.Record{
		Filename:    result.Filename,
		URL:         req.URL,
		ContentType: contentType,
		Size:        written,
		Timestamp:   time.Now().Unix(),
	})
	f.log.Info().Msgf("Saved %s (%d bytes) from %s", result.Filename, written, req.URL)
	return result, nil
}

// resolveFilename picks the output name: caller override first, then the
// Content-Disposition header, then the request URL's last path segment.
func resolveFilename(req Request, httpReq *http.Request, resp *http.Response) string {
	if req.Filename != "" {
		return Sanitize(req.Filename)
	}
	if name := filenameFromHeader(resp.Header.Get("Content-Disposition")); name != "" {
		return Sanitize(name)
	}
	return Sanitize(httpReq.URL.EscapedPath())
}

// uniquePath appends _1, _2, ... before the extension until the name is
// free in dir.
func uniquePath(dir, filename string) string {
	candidate := filepath.Join(dir, filename)
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}
}

// RemoveStaleTemps deletes leftover .part files from interrupted runs.
func RemoveStaleTemps(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+TempSuffix))
	if err != nil {
		return 0, fmt.Errorf("error listing temp files: %v", err)
	}
	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return removed, fmt.Errorf("error removing %s: %v", match, err)
		}
		removed++
	}
	return removed, nil
}
