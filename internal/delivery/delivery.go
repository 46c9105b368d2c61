// Package delivery hands assembled outputs back to the caller, either inline
// or as uploaded objects.
//
// In uploaded mode each requested artifact is written to the scratch
// directory as {job_id}{ext}, uploaded, and removed before Deliver returns,
// whatever the outcome.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"transcriber/internal/logging"
	"transcriber/internal/output"
	"transcriber/internal/scratch"
	"transcriber/internal/services"
)

// Mode selects how results reach the caller.
type Mode string

const (
	ModeInline   Mode = "inline"
	ModeUploaded Mode = "uploaded"
)

// ParseMode accepts the canonical names plus the HTTP aliases direct and cloud.
// An empty value means inline.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "inline", "direct":
		return ModeInline, nil
	case "uploaded", "cloud":
		return ModeUploaded, nil
	default:
		return "", fmt.Errorf("%w: unknown delivery mode %q", services.ErrValidation, value)
	}
}

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

// Result has the same shape in both modes. Inline fills the content fields;
// uploaded fills the URL fields.
type Result struct {
	Text             *string                `json:"text"`
	SRT              *string                `json:"srt"`
	Segments         []output.SegmentRecord `json:"segments"`
	DetectedLanguage string                 `json:"detected_language"`
	TextURL          *string                `json:"text_url"`
	SRTURL           *string                `json:"srt_url"`
	SegmentsURL      *string                `json:"segments_url"`
}

// URL returns the uploaded URL for kind, or "".
func (r Result) URL(kind output.Kind) string {
	var u *string
	switch kind {
	case output.KindText:
		u = r.TextURL
	case output.KindSRT:
		u = r.SRTURL
	case output.KindSegments:
		u = r.SegmentsURL
	}
	if u == nil {
		return ""
	}
	return *u
}

func (r *Result) setURL(kind output.Kind, value string) {
	switch kind {
	case output.KindText:
		r.TextURL = &value
	case output.KindSRT:
		r.SRTURL = &value
	case output.KindSegments:
		r.SegmentsURL = &value
	}
}

// Resolver delivers outputs for one process. It is safe for concurrent use
// as long as job ids are unique.
type Resolver struct {
	dir      string
	uploader Uploader
	logger   *slog.Logger
}

// NewResolver builds a resolver writing artifacts under dir. uploader may be
// nil when only inline delivery is used.
func NewResolver(dir string, uploader Uploader, logger *slog.Logger) *Resolver {
	return &Resolver{
		dir:      dir,
		uploader: uploader,
		logger:   logging.NewComponentLogger(logger, "delivery"),
	}
}

// Deliver returns outputs according to mode. Any write or upload failure
// fails the whole delivery with services.ErrDelivery.
func (r *Resolver) Deliver(ctx context.Context, outs output.Outputs, mode Mode, jobID string) (Result, error) {
	switch mode {
	case ModeInline:
		return inline(outs), nil
	case ModeUploaded:
		return r.upload(ctx, outs, jobID)
	default:
		return Result{}, services.Wrap(services.ErrValidation, "delivering", "deliver", fmt.Sprintf("unknown mode %q", mode), nil)
	}
}

func inline(outs output.Outputs) Result {
	result := Result{
		Text:             outs.Text,
		SRT:              outs.SRT,
		DetectedLanguage: outs.Language,
	}
	if outs.Wants().Segments {
		result.Segments = outs.Segments
		if result.Segments == nil {
			result.Segments = []output.SegmentRecord{}
		}
	}
	return result
}

func (r *Resolver) upload(ctx context.Context, outs output.Outputs, jobID string) (result Result, err error) {
	result = Result{DetectedLanguage: outs.Language}
	if r.uploader == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "delivering", "upload", "no storage provider configured", nil)
	}
	logger := logging.WithContext(ctx, r.logger)

	var artifacts scratch.Set
	defer func() {
		if releaseErr := artifacts.Release(); releaseErr != nil {
			logging.WarnWithContext(logger, "artifact cleanup failed", "artifact_cleanup_failed",
				logging.Error(releaseErr),
				logging.String(logging.FieldImpact, "stale artifacts remain until the next sweep"),
			)
		}
	}()

	var uploaded []string
	defer func() {
		if err != nil && len(uploaded) > 0 {
			logging.WarnWithContext(logger, "delivery failed after partial upload", "partial_upload",
				logging.Any("uploaded_urls", uploaded),
				logging.String(logging.FieldErrorHint, "remove the listed objects or resubmit the job"),
				logging.String(logging.FieldImpact, "objects remain in the bucket without a completed job"),
			)
		}
	}()

	for _, kind := range output.Kinds {
		data, ok, renderErr := outs.Render(kind)
		if renderErr != nil {
			return Result{}, services.Wrap(services.ErrDelivery, "delivering", "render", string(kind), renderErr)
		}
		if !ok {
			continue
		}
		if len(data) == 0 && kind != output.KindSegments {
			logger.Debug("skipping empty artifact", logging.String("kind", string(kind)))
			continue
		}

		path, pathErr := scratch.ArtifactPath(r.dir, jobID, kind.Extension())
		if pathErr != nil {
			return Result{}, services.Wrap(services.ErrDelivery, "delivering", "artifact path", string(kind), pathErr)
		}
		artifacts.Track(path)
		if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
			return Result{}, services.Wrap(services.ErrDelivery, "delivering", "write artifact", string(kind), writeErr)
		}

		objectURL, uploadErr := r.uploader.UploadFile(ctx, path)
		if removeErr := artifacts.Remove(path); removeErr != nil {
			logger.Debug("artifact removal failed", logging.Error(removeErr))
		}
		if uploadErr != nil {
			return Result{}, services.Wrap(services.ErrDelivery, "delivering", "upload", string(kind), uploadErr)
		}
		uploaded = append(uploaded, objectURL)
		result.setURL(kind, objectURL)
	}
	return result, nil
}
