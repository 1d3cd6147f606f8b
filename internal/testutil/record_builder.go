package testutil

import (
	"fmt"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// RecordBuilder helps construct generation records with fluent chaining.
// Example:
//
//	rec := NewRecordBuilder("a cat").Expanded("a fluffy cat").Stamp("20240101_000000").Build()
type RecordBuilder struct {
	rec core.GenerationRecord
}

// NewRecordBuilder creates a builder for a record with the given prompt.
// The expanded prompt defaults to a derivation of the prompt.
func NewRecordBuilder(prompt string) *RecordBuilder {
	return &RecordBuilder{rec: core.GenerationRecord{
		Prompt:         prompt,
		ExpandedPrompt: "expanded: " + prompt,
	}}
}

// Expanded sets the expanded prompt (chainable).
func (b *RecordBuilder) Expanded(s string) *RecordBuilder {
	b.rec.ExpandedPrompt = s
	return b
}

// Stamp derives both artifact paths from an artifact stamp (chainable).
func (b *RecordBuilder) Stamp(stamp string) *RecordBuilder {
	b.rec.ImageFile = core.KindImage.FileName(stamp)
	b.rec.ModelFile = core.KindModel.FileName(stamp)
	return b
}

// CreatedAt stamps the record as a long-term entry (chainable).
func (b *RecordBuilder) CreatedAt(t time.Time) *RecordBuilder {
	b.rec = b.rec.WithCreatedAt(t)
	return b
}

// Build returns the record.
func (b *RecordBuilder) Build() core.GenerationRecord { return b.rec }

// Records returns n distinct long-term records in order, one second apart.
func Records(n int) []core.GenerationRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.GenerationRecord, n)
	for i := range out {
		ts := base.Add(time.Duration(i) * time.Second)
		out[i] = NewRecordBuilder(fmt.Sprintf("prompt %d", i)).
			Stamp(ts.Format("20060102_150405")).
			CreatedAt(ts).
			Build()
	}
	return out
}
