// Package postgres provides PostgreSQL-backed implementations of the
// interfaces defined in the internal/store package, together with the
// embedded goose migrations that create their schema.
//
// Preference changes are published by a table trigger on the
// preferences_changed channel. PreferenceStore.Listen turns those
// notifications into subscriber callbacks, so edits made by other processes
// reach the credential binding the same way local writes do.
package postgres
