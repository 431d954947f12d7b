package context

import "fmt"

// CompactError reports that a summarization call failed. Per the
// propagation rule, the loop continues without compacting; the caller is
// expected to record a warning and keep running on the uncompacted
// message set, surfacing only if the window later exceeds its hard limit.
type CompactError struct {
	Reason string
	Err    error
}

func (e *CompactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compaction failed: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("compaction failed: %s", e.Reason)
}

func (e *CompactError) Unwrap() error { return e.Err }
