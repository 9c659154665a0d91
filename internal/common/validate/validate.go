// Package validate holds the field checks shared by every account and
// contact flow: trimming, required-ness, the forbidden-character rule, and
// email and password shape.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Adeyod/degenuisFx-backend/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// ForbiddenChars may not appear in any free-text field.
const ForbiddenChars = "|!{}()&=[]<>"

// PasswordSymbols are the characters that satisfy the symbol requirement.
const PasswordSymbols = "!@#$%^&*()_+{}[]:;<>,.?~\\/-"

const (
	EmailMessage    = "Invalid input for email..."
	PasswordMessage = "Password must contain at least 1 special character, 1 lowercase letter, and 1 uppercase letter. Also it must be minimum of 8 characters and maximum of 20 characters"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field is one labelled value run through a list of rules.
type Field struct {
	Label string
	Value string
	Rules []validation.Rule
}

// Text is a free-text field subject to the forbidden-character rule.
func Text(label, value string) Field {
	return Field{Label: label, Value: value, Rules: []validation.Rule{NoForbiddenChars(label)}}
}

// Run checks fields in order and returns the first failure as a validation error.
func Run(fields ...Field) error {
	for _, f := range fields {
		if err := validation.Validate(f.Value, f.Rules...); err != nil {
			return common.Validation(err.Error())
		}
	}
	return nil
}

// Trim trims every referenced string in place. Nil pointers are skipped.
func Trim(values ...*string) {
	for _, v := range values {
		if v != nil {
			*v = strings.TrimSpace(*v)
		}
	}
}

// Required fails with the mandatory-fields error when any value is empty.
func Required(values ...string) error {
	for _, v := range values {
		if v == "" {
			return common.ErrMissingFields
		}
	}
	return nil
}

func HasForbiddenChars(s string) bool {
	return strings.ContainsAny(s, ForbiddenChars)
}

// NoForbiddenChars rejects strings containing any of ForbiddenChars.
func NoForbiddenChars(label string) validation.Rule {
	return Clean(fmt.Sprintf("Invalid character in %s field", label))
}

// Clean is NoForbiddenChars with a caller-chosen message.
func Clean(message string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if HasForbiddenChars(s) {
			return errors.New(message)
		}
		return nil
	})
}

// Email matches local@domain.tld.
var Email = validation.Match(emailPattern).Error(EmailMessage)

// StrongPassword requires 8 to 20 characters with at least one upper case
// letter, one lower case letter, one digit and one symbol.
var StrongPassword = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if !IsStrongPassword(s) {
		return errors.New(PasswordMessage)
	}
	return nil
})

func IsStrongPassword(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 8 || n > 20 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) && r < unicode.MaxASCII:
			upper = true
		case unicode.IsLower(r) && r < unicode.MaxASCII:
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// OneOf restricts a value to the given options.
func OneOf(label string, options ...string) validation.Rule {
	in := make([]interface{}, len(options))
	for i, o := range options {
		in[i] = o
	}
	return validation.In(in...).Error(fmt.Sprintf("Invalid input for %s field", label))
}

// NormalizePhone normalizes numbers given in international form to E.164. Anything
// else is returned unchanged; local formats are accepted as typed.
func NormalizePhone(raw string) string {
	if !strings.HasPrefix(raw, "+") {
		return raw
	}
	num, err := phonenumbers.Parse(raw, "")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// DateOfBirth accepts YYYY-MM-DD or an RFC 3339 timestamp.
func DateOfBirth(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, common.Validation("Invalid input for date of birth field")
}
