package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
	"github.com/llm-d-incubation/session-matcher/pkg/solver"
)

// ErrOutputExists is returned when the output file exists and overwriting
// was not requested.
var ErrOutputExists = errors.New("output file already exists")

// Header is the first row of an assignment file.
var Header = []string{"SID", "Ticket Type"}

// FromOutcome converts an outcome into assignment records: held students
// session by session in mode order, each roster in roster order, then the
// unassigned students with the UNASSIGNED sentinel.
func FromOutcome(outcome *solver.Outcome, mode names.Mode) []v1alpha1.AssignmentRecord {
	assignments := outcome.Assignments()
	slices.SortStableFunc(assignments, func(a, b solver.Assignment) int {
		switch {
		case a.Assigned() && !b.Assigned():
			return -1
		case !a.Assigned() && b.Assigned():
			return 1
		case !a.Assigned():
			return 0
		}
		return names.Compare(a.Session, b.Session, mode)
	})

	out := make([]v1alpha1.AssignmentRecord, len(assignments))
	for i, a := range assignments {
		session := a.Session
		if !a.Assigned() {
			session = names.Unassigned
		}
		out[i] = v1alpha1.AssignmentRecord{
			StudentID: a.StudentID,
			Session:   session,
			Grade:     a.Grade,
			Rank:      a.Rank,
		}
	}
	return out
}

// WriteAssignments writes the header and one row per record and returns the
// number of student rows written.
func WriteAssignments(w io.Writer, assignments []v1alpha1.AssignmentRecord) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return 0, err
	}
	for i, a := range assignments {
		if err := writer.Write([]string{a.StudentID, a.Session}); err != nil {
			return i, err
		}
	}
	writer.Flush()
	return len(assignments), writer.Error()
}

// CreateFile opens path for writing. Without force an existing file is left
// untouched and ErrOutputExists is returned.
func CreateFile(path string, force bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	}
	return f, err
}

// WriteFile writes the assignments to path, honoring force like CreateFile.
func WriteFile(path string, assignments []v1alpha1.AssignmentRecord, force bool) (int, error) {
	f, err := CreateFile(path, force)
	if err != nil {
		return 0, err
	}
	n, err := WriteAssignments(f, assignments)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", path, err)
	}
	return n, nil
}

// CheckWritable fails early with ErrOutputExists when path exists and force
// is not set, so callers can refuse before doing any work.
func CheckWritable(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
