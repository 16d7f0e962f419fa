// Package solver implements the capacity-constrained, priority-based
// deferred-acceptance matching of students to sessions.
//
// Key Components:
//
//   - Matcher: the propose/reject loop over a worklist of unplaced students
//   - Prematch: optional pre-seeding of students whose first choice is
//     uncontested at a given preference depth
//   - Outcome: final rosters, unassigned students and the trial score
//   - Tally: vote counts per session, used by reports
//
// Matching Strategy:
//
// Each step pops one student from the worklist:
//  1. An exhausted student is moved to the unassigned set
//  2. A choice naming no known session is skipped
//  3. A session with space admits the student
//  4. A full session compares the student with its most displaceable holder;
//     a strictly higher grade takes the seat and the holder re-enters the
//     worklist at its next choice, otherwise the proposer moves on
//
// Every step either finishes a student or advances a cursor, except
// admissions into free seats, which are bounded by total capacity. The loop
// therefore ends after at most the sum of all preference-list lengths plus
// the number of students and seats.
//
// Example usage:
//
//	m, err := solver.NewMatcher(students, sessions, solver.WithSeed(42, 0))
//	if err != nil {
//	    return err
//	}
//	m.Prematch(3)
//	outcome, err := m.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, a := range outcome.Assignments() {
//	    fmt.Println(a.StudentID, a.Session)
//	}
//
// A Matcher owns the students and sessions passed to it and mutates them.
// Callers running several trials must hand each trial its own copies.
package solver
