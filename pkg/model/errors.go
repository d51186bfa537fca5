package model

import "fmt"

// Error taxonomy of the pipeline. Errors are scoped to the smallest
// affected output; none of them abort a whole session run on their own.

// InsufficientDataError signals that too few samples or laps were
// available to compute a metric. The affected output degrades to
// "unavailable", sibling outputs are not affected.
type InsufficientDataError struct {
	What   string
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d, got %d",
		e.What, e.Needed, e.Got)
}

// MissingChannelError signals that a required telemetry channel is absent
// from the decoded stream. Dependent features degrade, the pipeline
// continues.
type MissingChannelError struct {
	Channel Channel
}

func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("channel %q not present in session", e.Channel)
}

// IncompatibleSessionsError signals that two sessions cannot be compared
// (different track/layout). Fatal to the comparison request only.
type IncompatibleSessionsError struct {
	Reason string
}

func (e *IncompatibleSessionsError) Error() string {
	return "sessions not comparable: " + e.Reason
}
