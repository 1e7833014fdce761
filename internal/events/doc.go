// Package events defines the listener contract for Trakt request lifecycle
// events and the registry that delivers them.
//
// Two delivery modes exist:
// - Single-target: before-request, after-request and request-error events go
// only to the listener tied to the initiating call, and only while that
// listener is registered.
// - Broadcast: show updated/removed events go to every registered listener,
// in registration order, over a snapshot taken when the broadcast starts.
package events
