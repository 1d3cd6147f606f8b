// Package memory contains concrete core.LongTermStore implementations: the
// durable generation ledger that outlives a process.
//
// JSONFileStore keeps the ledger as an indented JSON array and rewrites it
// atomically (temp file + rename) on every append. SQLiteStore keeps one row
// per record for deployments that prefer a database file. InMemoryStore is a
// volatile variant for tests and examples. All stores serialize appends so
// concurrent generations never lose each other's records.
package memory
