// Package api exposes the request manager over HTTP: queue status and show
// change broadcasts. Handlers resolve the manager on every request, so the
// server can start before the manager is created and answers 503 until then.
package api
