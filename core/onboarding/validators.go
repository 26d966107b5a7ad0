package onboarding

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/ongoza/cyberhub/core"
)

var (
	gradYearTag  = "gradyear"
	gradYearText = "enter a valid graduation year"
	gradYearMin  = 1950
	gradYearSkew = 6 // years ahead still accepted for ongoing studies

	trackTag  = "track"
	trackText = "choose one of the available tracks"

	emailText = "enter a valid email address"
	oneOfText = "choose one of the available options"
)

// NewValidator returns a validator ready to check profiles against the bank's tracks.
func NewValidator(bank *QuestionBank) (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	RegisterValidators(validate, translator, bank)
	return validate, translator
}

// RegisterValidators registers the onboarding validation rules & their translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator, bank *QuestionBank) {
	_ = validate.RegisterValidation(gradYearTag, gradYearValidation)
	core.RegisterCustomTranslation(validate, translator, gradYearTag, gradYearText)

	_ = validate.RegisterValidation(trackTag, func(fl validator.FieldLevel) bool {
		_, ok := bank.Track(TrackID(fl.Field().String()))
		return ok
	})
	core.RegisterCustomTranslation(validate, translator, trackTag, trackText)

	core.RegisterCustomTranslation(validate, translator, "email", emailText, true)
	core.RegisterCustomTranslation(validate, translator, "oneof", oneOfText, true)
}

func gradYearValidation(fl validator.FieldLevel) bool {
	year := int(fl.Field().Int())
	return year >= gradYearMin && year <= NowFunc().Year()+gradYearSkew
}
