package httpapi

import (
	"fmt"

	enlocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/studyhall/studyhall/internal/api"
)

// ValidationError carries per-field messages for the 400 payload.
type ValidationError struct {
	Fields []api.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// requestValidator adapts go-playground/validator to echo's Validator
// interface, with translated messages.
type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator() (*requestValidator, error) {
	en := enlocale.New()
	trans, _ := ut.New(en, en).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("registering validator translations: %w", err)
	}
	return &requestValidator{validate: v, trans: trans}, nil
}

func (rv *requestValidator) Validate(i any) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, api.FieldError{
			Field: fe.Field(),
			Error: fe.Translate(rv.trans),
		})
	}
	return out
}
