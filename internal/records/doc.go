// Package records reads matching input files and writes assignment files.
//
// # Input Formats
//
// Student files are CSV, one student per row:
//
//	SID, GRADE, CHOICE_1, CHOICE_2, ...
//
// Session files are CSV or YAML. CSV rows are:
//
//	CLASSNAME, NUM_SPACES
//
// YAML documents list sessions under a top-level key:
//
//	sessions:
//	  - name: Robotics
//	    capacity: 24
//
// # Malformed Rows
//
// Loaders never fail on a bad row. A student row whose grade is not an
// integer (usually a header) and a session row whose capacity is not a
// positive integer are skipped and counted in LoadStats. Blank choice cells
// are dropped. A repeated student id keeps the first row; a repeated session
// name keeps the last row.
//
// # Output Format
//
// The assignment file starts with the header "SID,Ticket Type" followed by
// one row per held student, session by session, then one row per unassigned
// student with the UNASSIGNED sentinel. WriteFile refuses to replace an
// existing file unless forced and returns ErrOutputExists instead.
//
// # Usage Example
//
//	src := records.NewFileSource("classes.csv", "students.csv", records.LoadOptions{MaxChoices: 5})
//	sessions, err := src.Sessions(ctx)
//	if err != nil {
//		return err
//	}
//	students, err := src.Students(ctx)
//	if err != nil {
//		return err
//	}
package records
