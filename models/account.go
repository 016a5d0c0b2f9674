package models

import "time"

const (
	RoleAdmin     = "admin"
	RoleNGO       = "ngo"
	RoleVolunteer = "volunteer"
)

const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusRejected = "rejected"
)

const (
	NotAvailable     = "N/A"
	NoEmailAvailable = "No email available"
)

// Account is a row of the users collection.
type Account struct {
	ID    string `bson:"_id,omitempty" json:"id"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Role  string `bson:"role" json:"role"`
}

// AdminUser may sign in to the console.
type AdminUser struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
