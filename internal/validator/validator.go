package validator

import (
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"
)

// Validator contains a map of form field validation errors.
type Validator struct {
	FieldErrors map[string]string
}

func (v *Validator) Valid() bool {
	return len(v.FieldErrors) == 0
}

func (v *Validator) AddFieldError(key, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}

	if _, exists := v.FieldErrors[key]; !exists {
		v.FieldErrors[key] = message
	}
}

func (v *Validator) CheckField(ok bool, key, message string) {
	if !ok {
		v.AddFieldError(key, message)
	}
}

func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxChars(value string, n int) bool {
	return utf8.RuneCountInString(value) <= n
}

// PermittedValue is a generic function that returns true if a specific value is in a list of permitted values.
func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	return slices.Contains(permittedValues, value)
}

// LocalPath reports whether value is a path on this site, so redirecting to it cannot leave the origin.
// Scheme-relative ("//host") and backslash tricks ("/\host") are rejected.
func LocalPath(value string) bool {
	if !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") || strings.HasPrefix(value, "/\\") {
		return false
	}

	u, err := url.Parse(value)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == ""
}

// AbsoluteURL reports whether value parses as an http or https URL with a host.
func AbsoluteURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
