// Package fetcher downloads remote media into the scratch directory.
//
// Each download gets a fresh random filename so concurrent jobs sharing the
// directory never collide. The extension comes from the URL path, then from a
// HEAD content-type probe, then defaults to ".bin".
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"transcriber/internal/logging"
	"transcriber/internal/services"
)

const (
	defaultChunkSize    = 8192
	defaultProbeTimeout = 10 * time.Second
	fallbackExtension   = ".bin"
	stage               = "fetching"
)

// HTTPDoer describes the HTTP client used by the fetcher.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher streams remote payloads to local scratch files.
type Fetcher struct {
	dir          string
	client       HTTPDoer
	logger       *slog.Logger
	userAgent    string
	chunkSize    int
	probeTimeout time.Duration
	newName      func() string
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) { f.userAgent = strings.TrimSpace(agent) }
}

// WithChunkSize bounds the copy buffer.
func WithChunkSize(size int) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}

// WithProbeTimeout bounds the HEAD request used for content-type detection.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.probeTimeout = timeout
		}
	}
}

// New constructs a Fetcher writing into dir.
func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir:          dir,
		client:       http.DefaultClient,
		logger:       logging.NewNop(),
		chunkSize:    defaultChunkSize,
		probeTimeout: defaultProbeTimeout,
		newName:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetcher")
	return f
}

// Fetch downloads sourceURL and returns the local path. On failure no file is
// left behind and the error carries services.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL string) (string, error) {
	logger := logging.WithContext(ctx, f.logger)

	parsed, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil {
		return "", services.Wrap(services.ErrFetch, stage, "parse url", sourceURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", services.Wrap(services.ErrFetch, stage, "parse url",
			fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrFetch, stage, "prepare scratch dir", f.dir, err)
	}

	ext := extensionFromPath(parsed.Path)
	if ext == "" {
		ext = f.probeExtension(ctx, parsed.String())
	}
	localPath := filepath.Join(f.dir, f.newName()+ext)

	logger.Info("downloading media",
		logging.String("url", redactURL(parsed)),
		logging.String("path", localPath),
	)
	started := time.Now()
	written, err := f.download(ctx, parsed.String(), localPath)
	if err != nil {
		if removeErr := os.Remove(localPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.Warn("partial download not removed", logging.String("path", localPath), logging.Error(removeErr))
		}
		return "", err
	}
	logger.Info("media downloaded",
		logging.String("path", localPath),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return localPath, nil
}

func (f *Fetcher) download(ctx context.Context, sourceURL, localPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrFetch, stage, "build request", "", err)
	}
	f.decorate(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrFetch, stage, "download", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, services.Wrap(services.ErrFetch, stage, "download",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	file, err := os.OpenFile(localPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, services.Wrap(services.ErrFetch, stage, "create file", localPath, err)
	}
	buf := make([]byte, f.chunkSize)
	written, copyErr := io.CopyBuffer(file, resp.Body, buf)
	closeErr := file.Close()
	if copyErr != nil {
		return written, services.Wrap(services.ErrFetch, stage, "write file", localPath, copyErr)
	}
	if closeErr != nil {
		return written, services.Wrap(services.ErrFetch, stage, "close file", localPath, closeErr)
	}
	return written, nil
}

// probeExtension issues a HEAD request and maps its content type. Any failure
// falls back to ".bin"; the GET decides whether the source is reachable.
func (f *Fetcher) probeExtension(ctx context.Context, sourceURL string) string {
	probeCtx, cancel := context.WithTimeout(ctx, f.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, sourceURL, nil)
	if err != nil {
		return fallbackExtension
	}
	f.decorate(req)
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("content-type probe failed", logging.Error(err))
		return fallbackExtension
	}
	resp.Body.Close()
	if ext := ExtensionForContentType(resp.Header.Get("Content-Type")); ext != "" {
		return ext
	}
	return fallbackExtension
}

func (f *Fetcher) decorate(req *http.Request) {
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
}

var preferredExtensions = map[string]string{
	"audio/mpeg":       ".mp3",
	"audio/mp3":        ".mp3",
	"audio/wav":        ".wav",
	"audio/x-wav":      ".wav",
	"audio/wave":       ".wav",
	"audio/mp4":        ".m4a",
	"audio/x-m4a":      ".m4a",
	"audio/aac":        ".aac",
	"audio/ogg":        ".ogg",
	"audio/opus":       ".opus",
	"audio/flac":       ".flac",
	"audio/x-flac":     ".flac",
	"audio/webm":       ".webm",
	"video/mp4":        ".mp4",
	"video/webm":       ".webm",
	"video/quicktime":  ".mov",
	"video/x-matroska": ".mkv",
}

// ExtensionForContentType maps a Content-Type header to a file extension, or
// "" when it is unknown.
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		return ""
	}
	mediaType = strings.ToLower(mediaType)
	if ext, ok := preferredExtensions[mediaType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// extensionFromPath returns a lowercase extension from the URL path when it
// looks like a real file extension.
func extensionFromPath(urlPath string) string {
	ext := strings.ToLower(path.Ext(urlPath))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func redactURL(u *url.URL) string {
	clone := *u
	clone.User = nil
	clone.RawQuery = ""
	return clone.String()
}
