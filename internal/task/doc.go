// Package task serializes Trakt requests. A Queue keeps at most one task
// active, starts the next task only when the active one reports completion,
// and lets callers ask which kind of work is currently running. Request is
// the standard Task: it runs a request function in the background and
// reports its outcome exactly once.
package task
