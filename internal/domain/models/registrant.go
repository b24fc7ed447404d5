// internal/domain/models/registrant.go
package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registrant is one camp participant.
//
// AssignedGroup is nil until the group assignment operation places the
// registrant; registration, import and export never write it.
type Registrant struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"full_name" json:"full_name"`
	FullNameCI     string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Age            int                `bson:"age" json:"age"`
	Gender         string             `bson:"gender" json:"gender"` // Male | Female
	ChurchLocation string             `bson:"church_location" json:"church_location"`
	AssignedGroup  *int               `bson:"assigned_group,omitempty" json:"assigned_group,omitempty"`
	ImportBatch    string             `bson:"import_batch,omitempty" json:"import_batch,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupLabel renders the assigned group for tables and exports.
func (r Registrant) GroupLabel() string {
	if r.AssignedGroup == nil {
		return "None"
	}
	return strconv.Itoa(*r.AssignedGroup)
}

// IsUnassigned reports whether the registrant has no group yet.
func (r Registrant) IsUnassigned() bool {
	return r.AssignedGroup == nil
}
