// Package core provides the fundamental data structures of the session matcher.
//
// This package contains the domain models that the matching engine mutates
// during a trial:
//
//   - Student: an identity, a priority class (grade), an ordered list of
//     session choices and the cursor pointing at the next choice to propose to
//   - Session: a capacity-limited target holding a roster of students ordered
//     from most to least displaceable
//
// Ordering inside a roster uses the key (grade ascending, order ascending).
// The order value is stamped on every admission from a per-session counter
// that only decreases, so among students of equal grade the one admitted
// most recently sits at the front of the roster and is evicted first. A
// holder that is evicted and admitted again, as the loop does when a
// proposer loses a tie, gets a fresh stamp and becomes the most displaceable
// of its grade.
//
// Example usage:
//
//	sess, err := core.NewSession("robotics", 2)
//	if err != nil {
//	    return err
//	}
//	s := core.NewStudent("s-001", 12, []string{"Robotics", "chess"})
//	if sess.HasSpace() {
//	    _ = sess.Admit(s)
//	}
//	for _, held := range sess.Roster() {
//	    fmt.Println(held.ID())
//	}
//
// The core package is designed to be:
//   - Independent of any input or output format
//   - Single-threaded: a trial owns its students and sessions exclusively
//   - Cloneable, so concurrent trials never share mutable state
package core
