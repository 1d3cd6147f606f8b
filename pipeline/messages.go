package pipeline

import "fmt"

// User facing outcome messages.
const (
	MsgExpandFailed  = "Failed to expand prompt."
	MsgImageFailed   = "Failed to generate image from prompt."
	MsgModelFailed   = "Failed to generate 3D model from image."
	MsgPersistFailed = "Failed to save generated artifacts."
	MsgRecordFailed  = "Failed to record generation in memory."
)

// SuccessMessage formats the message of a completed generation.
func SuccessMessage(expanded string) string {
	return fmt.Sprintf("Prompt expanded: %s\nImage and 3D model generated successfully.", expanded)
}
