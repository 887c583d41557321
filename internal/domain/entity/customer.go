// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the account entity. Staff accounts (admin, superadmin) share
// the same table and are distinguished by Role.
type Customer struct {
	ID           uuid.UUID // The Global Unique Identifier (GUID) for the customer.
	Email        string    // Primary contact email, used as the login identifier.
	Name         string    // Display name or real name.
	PasswordHash string    // bcrypt hash; never serialized to responses.
	Role         Role      // Resolved once at login into the request principal.
	DeviceToken  string    // Optional FCM registration token for order push notifications.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
