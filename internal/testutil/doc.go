// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing core objects (records, sessions,
// capability responses) and asserting behaviors. These helpers are not
// intended for production usage.
package testutil
