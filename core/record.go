package core

import (
	"bytes"
	"fmt"
	"time"
)

// TimestampLayout is the layout of GenerationRecord.CreatedAt.
const TimestampLayout = "2006-01-02T15:04:05"

// GenerationRecord describes one completed generation. Session records leave
// CreatedAt empty; long-term records carry it.
type GenerationRecord struct {
	Prompt         string `json:"prompt"`
	ExpandedPrompt string `json:"expanded_prompt"`
	ImageFile      string `json:"image_file"`
	ModelFile      string `json:"model_file"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// WithCreatedAt returns a copy of the record stamped with t.
func (r GenerationRecord) WithCreatedAt(t time.Time) GenerationRecord {
	r.CreatedAt = t.Format(TimestampLayout)
	return r
}

// ArtifactKind distinguishes the binary artifacts a generation produces.
type ArtifactKind string

const (
	KindImage ArtifactKind = "image"
	KindModel ArtifactKind = "model"
)

// Extension returns the file extension used for the kind.
func (k ArtifactKind) Extension() string {
	switch k {
	case KindImage:
		return "png"
	case KindModel:
		return "glb"
	default:
		return "bin"
	}
}

// FileName derives the artifact file name for kind and stamp, e.g.
// output_image_20240101_120000.png.
func (k ArtifactKind) FileName(stamp string) string {
	return fmt.Sprintf("output_%s_%s.%s", k, stamp, k.Extension())
}

var signatures = map[ArtifactKind][][]byte{
	KindImage: {
		[]byte("\x89PNG"),
		[]byte("\xff\xd8\xff"),
		[]byte("GIF8"),
	},
	KindModel: {
		[]byte("glTF"),
	},
}

// Recognizes reports whether data starts with a file signature of the kind:
// PNG, JPEG, GIF or WebP for images and binary glTF for models. Kinds without
// known signatures accept any data.
func (k ArtifactKind) Recognizes(data []byte) bool {
	sigs, ok := signatures[k]
	if !ok {
		return true
	}
	for _, sig := range sigs {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return k == KindImage && len(data) >= 12 &&
		bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}
