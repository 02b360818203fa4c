package domain

import (
	"errors"
	"time"
)

// ErrDuplicateRegistration is returned by record stores when the user already has a
// registration.
var ErrDuplicateRegistration = errors.New("registration already exists")

// RegistrationRecord is a completed seminar application. At most one exists per UserID.
type RegistrationRecord struct {
	ID           string
	UserID       int64
	Username     string
	DisplayName  string
	Organization string
	PhoneNumber  string
	EventDate    string
	WantsHotel   bool
	CreatedAt    time.Time
}

// RelayEnvelope is a user question on its way to the administrator chat.
type RelayEnvelope struct {
	SourceUserID int64
	Speaker      string
	Body         string
}
