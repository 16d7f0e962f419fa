package v1alpha1

import (
	"errors"
	"fmt"
	"time"

	"github.com/llm-d-incubation/session-matcher/pkg/core"
)

var (
	// ErrMissingID is returned for a student record without an identifier.
	ErrMissingID = errors.New("student id is required")
	// ErrMissingName is returned for a session record without a name.
	ErrMissingName = errors.New("session name is required")
)

// StudentRecord is one row of the student input file.
// Format: SID, GRADE, CHOICE_1, CHOICE_2, ...
type StudentRecord struct {
	// ID uniquely identifies the student.
	// +required
	ID string `json:"id" yaml:"id"`

	// Grade is the priority class. Higher grades displace lower grades.
	// Rows whose grade is not an integer are skipped by the loader.
	Grade int `json:"grade" yaml:"grade"`

	// Choices lists session names from most to least preferred. Names are
	// canonicalized by the loader before matching.
	// +optional
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Validate checks the record can become a Student.
func (r *StudentRecord) Validate() error {
	if r.ID == "" {
		return ErrMissingID
	}
	return nil
}

// ToStudent builds the matching-engine entity for the record.
func (r *StudentRecord) ToStudent() *core.Student {
	return core.NewStudent(r.ID, r.Grade, r.Choices)
}

// SessionRecord is one row of the session input file.
// Format: CLASSNAME, NUM_SPACES
type SessionRecord struct {
	// Name identifies the session. Matching is case-insensitive.
	// +required
	Name string `json:"name" yaml:"name"`

	// Capacity is the number of seats, at least 1.
	// Rows whose capacity is not a positive integer are skipped by the loader.
	Capacity int `json:"capacity" yaml:"capacity"`
}

// Validate checks the record can become a Session.
func (r *SessionRecord) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("session %q: %w", r.Name, core.ErrInvalidCapacity)
	}
	return nil
}

// ToSession builds the matching-engine resource for the record.
func (r *SessionRecord) ToSession() (*core.Session, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return core.NewSession(r.Name, r.Capacity)
}

// AssignmentRecord is one row of the output file.
type AssignmentRecord struct {
	// StudentID references StudentRecord.ID.
	StudentID string `json:"studentID" yaml:"studentID"`

	// Session is the session holding the student, or "UNASSIGNED".
	Session string `json:"session" yaml:"session"`

	// Grade of the student, kept so reports can be rebuilt from the archive.
	Grade int `json:"grade" yaml:"grade"`

	// Rank is the zero-based index of Session in the student's choices, -1
	// when unassigned.
	Rank int `json:"rank" yaml:"rank"`
}

// RunSummary describes one archived matching run.
type RunSummary struct {
	// RunID is a random UUID assigned when the run is archived.
	RunID string `json:"runID" yaml:"runID"`

	// CreatedAt is the time the run finished.
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`

	// Strategy is the trial strategy used ("sequential" or "parallel").
	Strategy string `json:"strategy" yaml:"strategy"`

	// Seed is the base seed; trial i is reproducible from (Seed, i).
	Seed uint64 `json:"seed" yaml:"seed"`

	// Iterations is the number of trials requested.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Presort is the pre-seeding depth, 0 when disabled.
	// +optional
	Presort int `json:"presort,omitempty" yaml:"presort,omitempty"`

	// Trials is the number of trials counted; lower than Iterations after an
	// early exit.
	Trials int `json:"trials" yaml:"trials"`

	// BestTrial is the index of the kept trial.
	BestTrial int `json:"bestTrial" yaml:"bestTrial"`

	// Score is the weighted sum of unassigned grades of the kept trial.
	Score int `json:"score" yaml:"score"`

	// Students and Sessions count the loaded records.
	Students int `json:"students" yaml:"students"`
	Sessions int `json:"sessions" yaml:"sessions"`

	// Unassigned counts students without a seat in the kept trial.
	Unassigned int `json:"unassigned" yaml:"unassigned"`

	// Assignments of the kept trial.
	// +optional
	Assignments []AssignmentRecord `json:"assignments,omitempty" yaml:"assignments,omitempty"`
}

// DeepCopy returns an independent copy of the summary.
func (in *RunSummary) DeepCopy() *RunSummary {
	if in == nil {
		return nil
	}
	out := *in
	if in.Assignments != nil {
		out.Assignments = make([]AssignmentRecord, len(in.Assignments))
		copy(out.Assignments, in.Assignments)
	}
	return &out
}
