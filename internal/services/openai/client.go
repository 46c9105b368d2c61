// Package openai is a transcription engine backed by an OpenAI-compatible
// audio API (/audio/transcriptions and /audio/translations).
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	langpkg "transcriber/internal/language"
	"transcriber/internal/logging"
	"transcriber/internal/services"
	"transcriber/internal/transcript"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "whisper-1"
	engineName     = "openai"
	errorBodyLimit = 2048
)

// HTTPDoer describes the HTTP client used by the engine.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client calls the audio API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  HTTPDoer
	logger  *slog.Logger
}

var _ transcript.Engine = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithBaseURL sets the API root (e.g. a self-hosted faster-whisper server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(strings.TrimSpace(url), "/") }
}

// WithModel selects the model name sent with every request.
func WithModel(model string) Option {
	return func(c *Client) { c.model = strings.TrimSpace(model) }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets a per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		client:  http.DefaultClient,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	c.logger = logging.NewComponentLogger(c.logger, engineName)
	return c
}

// Name identifies the engine in logs and job records.
func (c *Client) Name() string { return engineName }

type verboseWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type verboseSegment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []verboseWord `json:"words"`
}

type verboseResponse struct {
	Language string           `json:"language"`
	Text     string           `json:"text"`
	Segments []verboseSegment `json:"segments"`
	Words    []verboseWord    `json:"words"`
}

// Transcribe uploads audioPath and maps the verbose JSON response.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts transcript.Options) (transcript.Result, error) {
	if c.apiKey == "" {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName, "api key not configured", nil)
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName, "open audio", err)
	}
	defer file.Close()

	endpoint := c.baseURL + "/audio/transcriptions"
	if opts.Task == transcript.TaskTranslate {
		endpoint = c.baseURL + "/audio/translations"
	}

	body, contentType := c.multipartBody(file, filepath.Base(audioPath), opts)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName, "build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	logger := logging.WithContext(ctx, c.logger)
	logger.Info("transcription request started",
		logging.String("model", c.model),
		logging.String("task", string(opts.Task)),
		logging.Bool("word_timestamps", opts.WordTimestamps),
	)
	resp, err := c.client.Do(req)
	if err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName, "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var payload verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return transcript.Result{}, services.Wrap(services.ErrTranscription, "transcribing", engineName, "decode response", err)
	}
	result := payload.toResult(opts.WordTimestamps)
	logger.Info("transcription request completed",
		logging.Int("segments", len(result.Segments)),
		logging.String("detected_language", result.Language),
	)
	return result, nil
}

// multipartBody streams the form so large media is never held in memory.
func (c *Client) multipartBody(file io.Reader, filename string, opts transcript.Options) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := func() error {
			fields := [][2]string{
				{"model", c.model},
				{"response_format", "verbose_json"},
			}
			if opts.Task != transcript.TaskTranslate {
				if lang := langpkg.ToISO2(opts.Language); lang != "" {
					fields = append(fields, [2]string{"language", lang})
				}
				if opts.WordTimestamps {
					fields = append(fields,
						[2]string{"timestamp_granularities[]", "segment"},
						[2]string{"timestamp_granularities[]", "word"},
					)
				}
			}
			for _, field := range fields {
				if err := mw.WriteField(field[0], field[1]); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType()
}

func (p verboseResponse) toResult(includeWords bool) transcript.Result {
	segments := make([]transcript.Segment, 0, len(p.Segments))
	for _, seg := range p.Segments {
		out := transcript.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
		if includeWords {
			for _, w := range seg.Words {
				out.Words = append(out.Words, transcript.Word{Start: w.Start, End: w.End, Text: strings.TrimSpace(w.Word)})
			}
		}
		segments = append(segments, out)
	}
	if len(segments) == 0 && strings.TrimSpace(p.Text) != "" {
		end := 0.0
		if n := len(p.Words); n > 0 {
			end = p.Words[n-1].End
		}
		segments = append(segments, transcript.Segment{Start: 0, End: end, Text: p.Text})
	}
	if includeWords {
		distributeWords(segments, p.Words)
	}
	return transcript.Result{Segments: segments, Language: p.Language}
}

// distributeWords attaches top-level words to the segment whose span contains
// their start time. Segments that already carry words are left alone.
func distributeWords(segments []transcript.Segment, words []verboseWord) {
	if len(words) == 0 || len(segments) == 0 {
		return
	}
	for _, seg := range segments {
		if len(seg.Words) > 0 {
			return
		}
	}
	idx := 0
	for _, w := range words {
		for idx < len(segments)-1 && w.Start >= segments[idx].End {
			idx++
		}
		segments[idx].Words = append(segments[idx].Words, transcript.Word{
			Start: w.Start,
			End:   w.End,
			Text:  strings.TrimSpace(w.Word),
		})
	}
}
