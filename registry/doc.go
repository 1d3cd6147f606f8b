// Package registry holds the process-wide mapping from caller identity to
// that caller's enabled capability set.
//
// A Registry is an explicit object handed to the pipeline at construction;
// there is no package level state. Configuration events replace a caller's
// entry wholesale and the last write per identity wins. Capability
// identifiers are not validated here: an unresolvable capability fails at
// call time in the capability client.
package registry
