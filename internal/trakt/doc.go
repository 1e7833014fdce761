// Package trakt serializes requests to the Trakt service.
//
// A Manager owns the request queue, the listener registry and the
// credential binding, and shares one mutex between the queue and the
// binding. At most one queued request is in flight; further submissions
// wait and the user is told their action will run later. Each request
// reports completion once, which advances the queue and notifies the
// listener that started it.
//
// Callers that need a process-wide manager use Create and Instance.
package trakt
