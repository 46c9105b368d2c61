package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Set records job-owned scratch paths. The zero value is ready to use.
type Set struct {
	mu    sync.Mutex
	paths []string
}

// Track registers path for removal on Release. Empty paths are ignored.
func (s *Set) Track(path string) {
	if s == nil || strings.TrimSpace(path) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.paths {
		if existing == path {
			return
		}
	}
	s.paths = append(s.paths, path)
}

// Remove deletes one tracked path now and stops tracking it.
func (s *Set) Remove(path string) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	for i, existing := range s.paths {
		if existing == path {
			s.paths = append(s.paths[:i], s.paths[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return removeFile(path)
}

// Release removes every tracked path. Files that are already gone are not
// errors. All removals are attempted; failures are joined.
func (s *Set) Release() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs []error
	for _, path := range paths {
		if err := removeFile(path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch file %s: %w", path, err)
	}
	return nil
}

// ArtifactPath returns the deterministic artifact location for a job.
// jobID must be usable as a single path element.
func ArtifactPath(dir, jobID, ext string) (string, error) {
	if err := ValidateJobID(jobID); err != nil {
		return "", err
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, jobID+ext), nil
}

// ValidateJobID rejects identifiers that would escape the scratch directory
// or produce hidden files.
func ValidateJobID(jobID string) error {
	switch {
	case strings.TrimSpace(jobID) == "":
		return errors.New("job id is empty")
	case len(jobID) > 128:
		return errors.New("job id longer than 128 characters")
	case strings.HasPrefix(jobID, "."):
		return fmt.Errorf("job id %q must not start with a dot", jobID)
	case strings.ContainsAny(jobID, `/\`+"\x00"):
		return fmt.Errorf("job id %q contains a path separator", jobID)
	}
	return nil
}
