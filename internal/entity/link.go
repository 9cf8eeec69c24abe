// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which represents a shortened link along with
// its click statistics, and the errors shared by every layer.
package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned when a target or code is malformed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTarget is returned when the target is empty or not an absolute URL.
	ErrInvalidTarget = fmt.Errorf("%w: target must be a valid URL", ErrInvalidInput)
	// ErrInvalidCode is returned when a code does not match [A-Za-z0-9]{6,8}.
	ErrInvalidCode = fmt.Errorf("%w: code must match [A-Za-z0-9]{6,8}", ErrInvalidInput)
	// ErrCodeExists is returned when attempting to create a link with a code that already exists.
	ErrCodeExists = errors.New("code already exists")
	// ErrLinkNotFound is returned when a link with the specified code cannot be found.
	ErrLinkNotFound = errors.New("link not found")
	// ErrStoreUnavailable is returned when the store cannot be reached or fails unexpectedly.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Link represents a shortened link.
type Link struct {
	ID          int64      // ID is the store-assigned identifier, never exposed to clients.
	Code        string     // Code is the short code the link is reachable under.
	Target      string     // Target is the URL the code redirects to.
	Clicks      int64      // Clicks is the number of redirects through the code.
	LastClicked *time.Time // LastClicked is nil until the first redirect.
	CreatedAt   time.Time  // CreatedAt is the timestamp when the link was created.
}
