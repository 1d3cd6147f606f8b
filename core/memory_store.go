package core

import "context"

// LongTermStore is the durable generation ledger. Load on a store that does
// not exist yet returns an empty slice. Append must be safe for concurrent
// use: two appends never lose each other.
type LongTermStore interface {
	Load(ctx context.Context) ([]GenerationRecord, error)
	Append(ctx context.Context, record GenerationRecord) error
}
