// Package pipeline sequences one generation end to end: resolve the caller's
// capability set, expand the prompt, generate an image, derive a 3D model,
// persist both artifacts and record the generation in session and long-term
// memory.
//
// Every stage is a hard gate. A failing stage ends the run with a fixed user
// facing message, and later side effects never happen: no artifact is written
// before both capability calls succeeded and no memory record is written
// before both artifacts are persisted. Execute never returns an error; the
// cause of a failure travels in core.Outcome.Err for logs and metrics.
package pipeline
