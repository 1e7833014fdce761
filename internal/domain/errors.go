// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyShowID is returned when a show carries no TVDB identifier.
	ErrEmptyShowID = errors.New("show TVDB ID cannot be empty")

	// ErrEmptyShowTitle is returned when a show has a blank title.
	ErrEmptyShowTitle = errors.New("show title cannot be empty")

	// ErrEmptyUsername is returned when credentials carry no username.
	ErrEmptyUsername = errors.New("username cannot be empty")
)
