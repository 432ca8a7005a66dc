// Package statusstore hands the status URL of a scan from the build that
// started it to the build that collects its result.
package statusstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soos-io/cli-extension-sca/internal/constants"
	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
)

// ErrNotFound is returned by Load when no record exists for a build.
var ErrNotFound = errors.New("status record not found")

// Store persists one scan handle per build. Each build owns its own key, so
// implementations need no locking across builds.
type Store interface {
	// Save stores handle under key, replacing any existing record.
	Save(ctx context.Context, key scancontext.BuildKey, handle soosclient.ScanHandle) error
	// Load returns the handle stored under key or an error wrapping ErrNotFound.
	Load(ctx context.Context, key scancontext.BuildKey) (soosclient.ScanHandle, error)
}

// FileStore keeps records as single-line files under the host home directory:
// <home>/jobs/<job>/builds/<number>/resultUrl.txt.
type FileStore struct {
	home string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore rooted at home.
func NewFileStore(home string) *FileStore {
	return &FileStore{home: home}
}

// Path returns the record location for key.
func (s *FileStore) Path(key scancontext.BuildKey) string {
	return filepath.Join(
		s.home,
		constants.JobsDir,
		key.Job,
		constants.BuildsDir,
		strconv.Itoa(key.Number),
		constants.ResultURLFile,
	)
}

func (s *FileStore) Save(ctx context.Context, key scancontext.BuildKey, handle soosclient.ScanHandle) error {
	if err := ctx.Err(); err != nil {
		return scanerrors.New(scanerrors.Aborted, "save status record", err)
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.TrimSpace(string(handle)) == "" {
		return scanerrors.New(scanerrors.Persistence, "save status record", errors.New("empty scan handle"))
	}

	path := s.Path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return scanerrors.New(scanerrors.Persistence, "create build directory", err)
	}

	// CreateTemp opens the file 0600. Write then rename so a retried Save
	// never leaves a torn record.
	tmp, err := os.CreateTemp(dir, constants.ResultURLFile+".*")
	if err != nil {
		return scanerrors.New(scanerrors.Persistence, "save status record", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := tmp.WriteString(string(handle) + "\n"); err != nil {
		tmp.Close() //nolint:errcheck,gosec // the write error is reported
		return scanerrors.New(scanerrors.Persistence, "save status record", err)
	}
	if err := tmp.Close(); err != nil {
		return scanerrors.New(scanerrors.Persistence, "save status record", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return scanerrors.New(scanerrors.Persistence, "save status record", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, key scancontext.BuildKey) (soosclient.ScanHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", scanerrors.New(scanerrors.Aborted, "load status record", err)
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	path := s.Path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", scanerrors.New(scanerrors.Persistence, "load status record",
			fmt.Errorf("%w for build %s (%s)", ErrNotFound, key, path))
	}
	if err != nil {
		return "", scanerrors.New(scanerrors.Persistence, "load status record", err)
	}

	handle := lastLine(string(raw))
	if handle == "" {
		return "", scanerrors.New(scanerrors.Persistence, "load status record",
			fmt.Errorf("empty status record for build %s (%s)", key, path))
	}
	return soosclient.ScanHandle(handle), nil
}

func validateKey(key scancontext.BuildKey) error {
	if key.Job == "" || key.Job == "." || key.Job == ".." || strings.ContainsAny(key.Job, `/\`) {
		return scanerrors.Newf(scanerrors.Persistence, "invalid job name %q", key.Job)
	}
	if key.Number < 1 {
		return scanerrors.Newf(scanerrors.Persistence, "invalid build number %d", key.Number)
	}
	return nil
}

// lastLine returns the last non-blank line, matching records written by older
// integrations that did not terminate the line.
func lastLine(content string) string {
	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
