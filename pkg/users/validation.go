package users

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/memtensor/userapi/pkg/errors"
)

const (
	MsgRegistrationRequired = "All fields are required: email, password, firstname, lastname"
	MsgInvalidEmail         = "Please provide a valid email address"
	MsgPasswordTooShort     = "Password must be at least 6 characters long"
	MsgPasswordTooWeak      = "Password must contain at least one uppercase letter, one lowercase letter, and one number"
	MsgFirstnameTooShort    = "First name must be at least 2 characters long"
	MsgLastnameTooShort     = "Last name must be at least 2 characters long"
	MsgLoginRequired        = "Email and password are required"
	MsgPasswordBlank        = "Password cannot be empty"
	MsgPasswordTooLong      = "Password must be at most 72 bytes long"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("emailformat", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return isStrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	_ = v.RegisterValidation("trimmedmin", func(fl validator.FieldLevel) bool {
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len([]rune(strings.TrimSpace(fl.Field().String()))) >= min
	})
	return v
}

// isStrongPassword requires an ASCII lowercase letter, uppercase letter and digit
func isStrongPassword(s string) bool {
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit
}

// tagMessages maps "Field.tag" to the message reported for that failure
var tagMessages = map[string]string{
	"Email.emailformat":       MsgInvalidEmail,
	"Password.min":            MsgPasswordTooShort,
	"Password.strongpassword": MsgPasswordTooWeak,
	"Password.maxbytes":       MsgPasswordTooLong,
	"Password.notblank":       MsgPasswordBlank,
	"Firstname.trimmedmin":    MsgFirstnameTooShort,
	"Lastname.trimmedmin":     MsgLastnameTooShort,
}

// validateStruct runs the tag rules of s. Any missing required field yields
// requiredMsg; otherwise the first failing field in declaration order wins.
func validateStruct(s interface{}, requiredMsg string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error())
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return apperrors.NewValidationError(requiredMsg)
		}
	}
	for _, fe := range fieldErrs {
		if msg, ok := tagMessages[fe.StructField()+"."+fe.Tag()]; ok {
			return apperrors.NewValidationError(msg)
		}
	}
	return apperrors.NewValidationError(fieldErrs[0].Error())
}
