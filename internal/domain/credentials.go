package domain

// Credentials is the account pair handed to the remote-service client.
// PasswordHash is never a plaintext password once the stored password has
// been migrated.
type Credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Validate checks that the credentials name an account.
func (c Credentials) Validate() error {
	if c.Username == "" {
		return ErrEmptyUsername
	}
	return nil
}

// IsZero reports whether no credentials have been loaded yet.
func (c Credentials) IsZero() bool {
	return c.Username == "" && c.PasswordHash == ""
}
