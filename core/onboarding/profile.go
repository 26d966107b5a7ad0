package onboarding

import "github.com/ongoza/cyberhub/core"

// Education levels
const (
	EducationHighSchool = "high-school"
	EducationDiploma    = "diploma"
	EducationBachelors  = "bachelors"
	EducationMasters    = "masters"
	EducationPhD        = "phd"
)

var EducationLevels = []EducationLevel{
	{Name: "High School", Value: EducationHighSchool},
	{Name: "Diploma", Value: EducationDiploma},
	{Name: "Bachelor's Degree", Value: EducationBachelors},
	{Name: "Master's Degree", Value: EducationMasters},
	{Name: "PhD", Value: EducationPhD},
}

type EducationLevel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Profile is the applicant data collected by the wizard.
type Profile struct {
	FirstName      string `json:"first_name" validate:"required,notblank"`
	LastName       string `json:"last_name" validate:"required,notblank"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,phone"`
	Address        string `json:"address" validate:"required,notblank"`
	EducationLevel string `json:"education_level" validate:"required,oneof=high-school diploma bachelors masters phd"`
	Institution    string `json:"institution" validate:"required,notblank"`
	GraduationYear int    `json:"graduation_year" validate:"required,gradyear"`
	Experience     string `json:"experience" validate:"omitempty,max=2000"`
	Track          string `json:"track" validate:"required,track"`
}

func (p Profile) FullName() string {
	return core.CleanString(p.FirstName + " " + p.LastName)
}

// Fields checked before leaving each profile step.
var (
	personalInfoFields = []string{"FirstName", "LastName", "Email", "Phone", "Address"}
	educationFields    = []string{"EducationLevel", "Institution", "GraduationYear", "Experience"}
	trackFields        = []string{"Track"}
)

// ProfileUpdate defines what information may be provided to modify the Profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	EducationLevel *string `json:"education_level"`
	Institution    *string `json:"institution"`
	GraduationYear *int    `json:"graduation_year"`
	Experience     *string `json:"experience"`
	Track          *string `json:"track"`
}

func (pu ProfileUpdate) apply(p *Profile) {
	set := func(dst *string, src *string, lower bool) {
		if src != nil {
			*dst = core.CleanString(*src, lower)
		}
	}
	set(&p.FirstName, pu.FirstName, false)
	set(&p.LastName, pu.LastName, false)
	set(&p.Email, pu.Email, true)
	set(&p.Phone, pu.Phone, false)
	set(&p.Address, pu.Address, false)
	set(&p.EducationLevel, pu.EducationLevel, true)
	set(&p.Institution, pu.Institution, false)
	set(&p.Experience, pu.Experience, false)
	set(&p.Track, pu.Track, true)
	if pu.GraduationYear != nil {
		p.GraduationYear = *pu.GraduationYear
	}
}
