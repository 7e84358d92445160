package assembly

import "fmt"

// CompositionError reports blueprint and detail outputs that cannot be joined
// into a program. Retrying generation with the same outputs cannot fix it.
type CompositionError struct {
	DayTypeID string
	DayIndex  int
	Reason    string
}

func (e *CompositionError) Error() string {
	switch {
	case e.DayTypeID != "" && e.DayIndex > 0:
		return fmt.Sprintf("composition error: template day %d (day type %q): %s", e.DayIndex, e.DayTypeID, e.Reason)
	case e.DayTypeID != "":
		return fmt.Sprintf("composition error: day type %q: %s", e.DayTypeID, e.Reason)
	case e.DayIndex > 0:
		return fmt.Sprintf("composition error: template day %d: %s", e.DayIndex, e.Reason)
	default:
		return fmt.Sprintf("composition error: %s", e.Reason)
	}
}

// ProgramDayError reports a program day outside 1..90.
type ProgramDayError struct {
	Day int
}

func (e *ProgramDayError) Error() string {
	return fmt.Sprintf("program day %d is outside 1..%d", e.Day, programLength)
}
