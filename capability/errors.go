package capability

import "fmt"

// NotEnabledError reports a call to a capability that is not part of the
// caller's configured set.
type NotEnabledError struct {
	ID       string
	CallerID string
}

func (e *NotEnabledError) Error() string {
	return fmt.Sprintf("capability %q not enabled for caller %q", e.ID, e.CallerID)
}

// UnknownCapabilityError reports a call to an identifier no implementation is
// registered for.
type UnknownCapabilityError struct {
	ID string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown capability %q", e.ID)
}
