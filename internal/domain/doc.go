// Package domain contains the entities shared by the request manager: the
// Trakt shows that listeners are told about and the credential pair pushed to
// the remote-service client. It has no dependency on any infrastructure.
package domain
