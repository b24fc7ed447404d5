package inputval

import (
	"strings"

	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// Registration is the single-participant form as submitted.
type Registration struct {
	FullName string `form:"full_name" label:"Full name" validate:"notblank,min=2,max=200"`
	Age      string `form:"age" label:"Age" validate:"camp_age"`
	Gender   string `form:"gender" label:"Gender" validate:"camp_gender"`
	Location string `form:"church_location" label:"Church location" validate:"camp_location"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (in Registration) Trimmed() Registration {
	return Registration{
		FullName: strings.TrimSpace(in.FullName),
		Age:      strings.TrimSpace(in.Age),
		Gender:   strings.TrimSpace(in.Gender),
		Location: strings.TrimSpace(in.Location),
	}
}

// ValidateRegistration trims in, validates it, and on success returns the
// registrant ready to insert. AssignedGroup is always left nil.
func ValidateRegistration(in Registration) (models.Registrant, Errors) {
	in = in.Trimmed()
	if errs := Struct(in); errs != nil {
		return models.Registrant{}, errs
	}
	age, _ := rules.ParseAge(in.Age)
	gender, _ := rules.NormalizeGender(in.Gender)
	return models.Registrant{
		FullName:       in.FullName,
		FullNameCI:     text.Fold(in.FullName),
		Age:            age,
		Gender:         gender,
		ChurchLocation: in.Location,
	}, nil
}
