package store

import "context"

// PreferenceStore is a reactive key/value store for user preferences.
//
// Get methods report whether the key is present; an absent key is not an
// error. Subscribers are told the key of every value that changed, whether
// the change was made through the store or outside the process.
// Version: 1.0
type PreferenceStore interface {
	// GetString returns the string stored under key.
	GetString(ctx context.Context, key string) (string, bool, error)

	// GetBool returns the flag stored under key.
	GetBool(ctx context.Context, key string) (bool, bool, error)

	// SetString stores value under key and notifies subscribers.
	SetString(ctx context.Context, key, value string) error

	// SetBool stores value under key and notifies subscribers.
	SetBool(ctx context.Context, key string, value bool) error

	// Subscribe registers fn for change notifications and returns a function
	// that removes the subscription.
	Subscribe(fn func(key string)) (unsubscribe func())
}
