package artifact

import "fmt"

var (
	// ErrNotFound is returned when an artifact for the given kind / stamp pair
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrExists is returned when saving would overwrite an existing artifact.
	ErrExists = fmt.Errorf("artifact already exists")
)
