package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/logging"
)

// FileSource reads sessions and students from files on disk. Session files
// ending in .yaml or .yml are decoded as YAML, anything else as CSV.
type FileSource struct {
	sessionsPath string
	studentsPath string
	opts         LoadOptions
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a new FileSource instance.
func NewFileSource(sessionsPath, studentsPath string, opts LoadOptions) *FileSource {
	return &FileSource{sessionsPath: sessionsPath, studentsPath: studentsPath, opts: opts}
}

// Name returns the input paths.
func (s *FileSource) Name() string {
	return fmt.Sprintf("files(%s, %s)", s.sessionsPath, s.studentsPath)
}

// Sessions loads the session file.
func (s *FileSource) Sessions(ctx context.Context) ([]v1alpha1.SessionRecord, error) {
	f, err := os.Open(s.sessionsPath)
	if err != nil {
		return nil, fmt.Errorf("opening sessions: %w", err)
	}
	defer f.Close()

	read := ReadSessions
	switch strings.ToLower(filepath.Ext(s.sessionsPath)) {
	case ".yaml", ".yml":
		read = ReadSessionsYAML
	}
	out, stats, err := read(ctx, f, s.opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.sessionsPath, err)
	}
	logStats(ctx, "sessions", s.sessionsPath, stats)
	return out, nil
}

// Students loads the student file.
func (s *FileSource) Students(ctx context.Context) ([]v1alpha1.StudentRecord, error) {
	f, err := os.Open(s.studentsPath)
	if err != nil {
		return nil, fmt.Errorf("opening students: %w", err)
	}
	defer f.Close()

	out, stats, err := ReadStudents(ctx, f, s.opts)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", s.studentsPath, err)
	}
	logStats(ctx, "students", s.studentsPath, stats)
	return out, nil
}

func logStats(ctx context.Context, kind, path string, stats LoadStats) {
	logging.FromContext(ctx).V(logging.DEBUG).Info("Loaded records",
		"kind", kind,
		"path", path,
		"rows", stats.Rows,
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"duplicates", stats.Duplicates)
}
