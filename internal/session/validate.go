package session

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a client-side form rejection. It is raised before any
// network call and never touches the stored session.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New()

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerInput struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Confirm  string `validate:"eqfield=Password"`
}

func checkLogin(email, password string) error {
	return firstViolation(validate.Struct(loginInput{Email: email, Password: password}))
}

func checkRegister(username, email, password, confirm string) error {
	return firstViolation(validate.Struct(registerInput{
		Username: username,
		Email:    email,
		Password: password,
		Confirm:  confirm,
	}))
}

// firstViolation converts the first failed rule into a user-facing message.
func firstViolation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg := ""
	switch {
	case fe.Tag() == "required":
		msg = fe.Field() + " is required"
	case fe.Tag() == "email":
		msg = "enter a valid email address"
	case fe.Tag() == "eqfield":
		msg = "passwords do not match"
	case fe.Tag() == "min" && fe.Field() == "Password":
		msg = "password must be at least 8 characters"
	case fe.Tag() == "min":
		msg = fe.Field() + " is too short"
	default:
		msg = fe.Field() + " is invalid"
	}
	return &ValidationError{Field: fe.Field(), Msg: msg}
}
