package core

import (
	"encoding/base64"
	"fmt"
	"sort"
)

// Well-known response keys extracted by the pipeline. Any other key in a
// capability response is ignored.
const (
	KeyImage = "result"
	KeyModel = "generated_object"
)

// Payload is an artifact payload as returned by a capability: either raw
// bytes or an already encoded (base64) text representation.
type Payload struct {
	raw     []byte
	encoded string
	isRaw   bool
}

// RawPayload wraps raw binary data.
func RawPayload(b []byte) Payload { return Payload{raw: b, isRaw: true} }

// EncodedPayload wraps a text encoded payload.
func EncodedPayload(s string) Payload { return Payload{encoded: s} }

// IsRaw reports whether the payload arrived as raw bytes.
func (p Payload) IsRaw() bool { return p.isRaw }

// Empty reports whether the payload carries no data.
func (p Payload) Empty() bool {
	if p.isRaw {
		return len(p.raw) == 0
	}
	return p.encoded == ""
}

// Encoded returns a transmissible text form: raw bytes are base64 encoded
// with the standard encoding, encoded payloads pass through unchanged.
func (p Payload) Encoded() string {
	if p.isRaw {
		return base64.StdEncoding.EncodeToString(p.raw)
	}
	return p.encoded
}

// Bytes returns the binary form of the payload. Encoded payloads are decoded
// with the standard base64 encoding.
func (p Payload) Bytes() ([]byte, error) {
	if p.isRaw {
		return p.raw, nil
	}
	b, err := base64.StdEncoding.DecodeString(p.encoded)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return b, nil
}

// Result is the tagged outcome of a capability call. An absent result (the
// capability was unreachable or returned no body) is distinct from a present
// result that lacks the expected key, which is again distinct from a key of
// the wrong type.
type Result struct {
	present bool
	body    map[string]any
	err     error
}

// NewResult wraps a decoded response body. A nil body is still a present,
// empty result.
func NewResult(body map[string]any) Result {
	if body == nil {
		body = map[string]any{}
	}
	return Result{present: true, body: body}
}

// NoResult returns an absent result recording why nothing usable came back.
func NoResult(cause error) Result {
	if cause == nil {
		cause = ErrNoResult
	}
	return Result{err: cause}
}

// Present reports whether the capability returned a body.
func (r Result) Present() bool { return r.present }

// Err returns the cause of an absent result.
func (r Result) Err() error { return r.err }

// Keys returns the sorted response keys, for logging.
func (r Result) Keys() []string {
	keys := make([]string, 0, len(r.body))
	for k := range r.body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Image returns the text-to-image payload stored under KeyImage.
func (r Result) Image() (Payload, error) { return r.payload(KeyImage) }

// Model returns the image-to-3D payload stored under KeyModel.
func (r Result) Model() (Payload, error) { return r.payload(KeyModel) }

func (r Result) payload(key string) (Payload, error) {
	if !r.present {
		if r.err == nil || r.err == ErrNoResult {
			return Payload{}, ErrNoResult
		}
		return Payload{}, fmt.Errorf("%w: %w", ErrNoResult, r.err)
	}
	v, ok := r.body[key]
	if !ok || v == nil {
		return Payload{}, &MissingArtifactError{Key: key}
	}
	var p Payload
	switch t := v.(type) {
	case []byte:
		p = RawPayload(t)
	case string:
		p = EncodedPayload(t)
	case Payload:
		p = t
	default:
		return Payload{}, &MalformedResponseError{Op: "result", Field: key, Err: fmt.Errorf("unexpected type %T", v)}
	}
	if p.Empty() {
		return Payload{}, &MissingArtifactError{Key: key}
	}
	return p, nil
}
