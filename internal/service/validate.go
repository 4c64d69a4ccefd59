package service

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
)

const (
	minPasswordLen    = 8
	maxPasswordLen    = 128
	maxDisplayNameLen = 64
	maxMinutesPerCall = 24 * 60
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

func validateUsername(username string) error {
	if username == "" {
		return apperr.Validation("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return apperr.Validation("username must be 3-32 letters, digits, dots, dashes or underscores")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.Validation("password is required")
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return apperr.Validation("password must be between %d and %d characters", minPasswordLen, maxPasswordLen)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email is not a valid address")
	}
	return email, nil
}

func normalizeDisplayName(displayName, username string) (string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return username, nil
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return "", apperr.Validation("display name must be at most %d characters", maxDisplayNameLen)
	}
	return displayName, nil
}
