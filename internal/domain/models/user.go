// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account that can sign in to the registration hub.
//
// Only role "admin" may register, import, export, or assign; "viewer"
// accounts can browse the dashboard and group tables.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	Role         string             `bson:"role" json:"role"`                                   // admin | viewer
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Roles and statuses understood by the hub.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)
