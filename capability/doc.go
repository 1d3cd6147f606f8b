// Package capability invokes remote generation capabilities (text-to-image,
// image-to-3D, ...) addressed by an opaque identifier.
//
// Every call yields a core.Result instead of an error. Transport failures,
// non-success statuses and undecodable bodies all surface as an absent result
// whose Err explains the cause, so the pipeline can map them to a stage
// outcome without inspecting HTTP details.
package capability
