package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"

	"commsdesk/pkg/apperr"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._]{3,50}$`)
	nipRe      = regexp.MustCompile(`^[0-9]{18}$`)
)

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return apperr.New(apperr.Validation,
			"Username must be 3-50 characters and contain only letters, digits, dots and underscores")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.New(apperr.Validation, "Invalid email address")
	}
	return nil
}

func validateFullName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 3 || len(trimmed) > 100 {
		return apperr.New(apperr.Validation, "Full name must be 3-100 characters")
	}
	for _, r := range trimmed {
		if unicode.IsDigit(r) {
			return apperr.New(apperr.Validation, "Full name must not contain digits")
		}
	}
	return nil
}

func validateNIP(nip string) error {
	if !nipRe.MatchString(nip) {
		return apperr.New(apperr.Validation, "NIP must be exactly 18 digits")
	}
	return nil
}
