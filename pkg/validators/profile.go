package validators

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const maxBioLength = 500

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameInvalid = errors.New("username must be 3-50 characters of letters, digits or underscores")
	ErrBioTooLong      = errors.New("bio can't be longer than 500 characters")
)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}

func BioValidator(b string) error {
	if utf8.RuneCountInString(b) > maxBioLength {
		return ErrBioTooLong
	}

	return nil
}
