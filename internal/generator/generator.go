// Package generator writes random student input files for trying out the
// matcher: every student row gets K distinct sessions drawn at random.
package generator

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/llm-d-incubation/session-matcher/internal/logging"
)

// ErrNotEnoughSessions is returned when more choices are requested than there
// are sessions to choose from.
var ErrNotEnoughSessions = errors.New("not enough sessions for the requested choices")

// DefaultChoices is the number of choices written per student.
const DefaultChoices = 5

// Grades are the grades drawn when random grades are requested.
var Grades = []int{9, 10, 11, 12}

// Config holds generator settings
type Config struct {
	// Choices is the number of distinct sessions per student
	Choices int
	// RandomGrades replaces every integer grade with one drawn from Grades
	RandomGrades bool
	// Seed for the generator, 0 draws a random seed
	Seed uint64
}

// Generator draws random choices over a fixed set of session names.
type Generator struct {
	sessions []string
	config   Config
	rng      *rand.Rand
}

// NewGenerator creates a new Generator instance.
func NewGenerator(sessions []string, config Config) (*Generator, error) {
	if config.Choices <= 0 {
		config.Choices = DefaultChoices
	}
	if config.Choices > len(sessions) {
		return nil, fmt.Errorf("%w: %d choices over %d sessions", ErrNotEnoughSessions, config.Choices, len(sessions))
	}
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		sessions: append([]string(nil), sessions...),
		config:   config,
		rng:      rand.New(rand.NewPCG(seed, 0)),
	}, nil
}

// Pick returns Choices distinct session names in random order.
func (g *Generator) Pick() []string {
	perm := g.rng.Perm(len(g.sessions))
	out := make([]string, g.config.Choices)
	for i := range out {
		out[i] = g.sessions[perm[i]]
	}
	return out
}

// Generate reads student rows (SID, GRADE, ...) from r and writes
// SID, GRADE, CHOICE_1..CHOICE_K to w. Rows without an integer grade, such
// as headers, are copied unchanged. It returns the number of generated rows.
func (g *Generator) Generate(ctx context.Context, r io.Reader, w io.Writer) (int, error) {
	logger := logging.FromContext(ctx)
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	writer := csv.NewWriter(w)

	generated := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return generated, fmt.Errorf("reading students: %w", err)
		}

		var grade int
		if len(row) >= 2 {
			grade, err = strconv.Atoi(strings.TrimSpace(row[1]))
		}
		if len(row) < 2 || err != nil {
			if err := writer.Write(row); err != nil {
				return generated, err
			}
			continue
		}
		if g.config.RandomGrades {
			grade = Grades[g.rng.IntN(len(Grades))]
		}

		chosen := g.Pick()
		out := append([]string{row[0], strconv.Itoa(grade)}, chosen...)
		if err := writer.Write(out); err != nil {
			return generated, err
		}
		generated++
		if generated%100 == 0 {
			logger.V(logging.DEBUG).Info("Generated choices", "student", generated, "choices", chosen)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return generated, err
	}
	logger.Info("Generated student choices", "students", generated, "choicesPerStudent", g.config.Choices)
	return generated, nil
}
