package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"mindplay/internal/common/fsutil"
)

// Writer dumps one JSON file per finished game under
// <logsDir>/<sanitized public model name>/.
type Writer struct {
	dir string
	log zerolog.Logger
}

// NewWriter resolves and creates the log directory for the given
// submission name.
func NewWriter(logsDir, publicModelName string, log zerolog.Logger) (*Writer, error) {
	base, err := fsutil.ExpandHome(logsDir)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(base, fsutil.SanitizeName(publicModelName))
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}
	return &Writer{dir: dir, log: log}, nil
}

// Dir returns the resolved log directory.
func (w *Writer) Dir() string { return w.dir }

// Write persists the record and returns the file path. File names carry
// the game start time plus the track so two track workers finishing in the
// same second do not collide.
func (w *Writer) Write(rec Record) (string, error) {
	name := fmt.Sprintf("%s_%s.json",
		rec.StartTime.UTC().Format("20060102_150405"),
		fsutil.SanitizeName(string(rec.Track)),
	)
	path := filepath.Join(w.dir, name)
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal game record: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("write game record: %w", err)
	}
	w.log.Info().Str("path", path).Str("outcome", string(rec.Outcome)).Msg("game record written")
	return path, nil
}
