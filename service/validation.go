package service

import (
	"errors"
	"regexp"
	"strings"
)

const (
	minDimension = 1
	maxDimension = 4096

	maxProjectNameLength = 128

	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("project name is required")
	}
	if len(name) > maxProjectNameLength {
		return errors.New("project name too long")
	}
	return nil
}

func ValidateDimensions(width int, height int) error {
	if width < minDimension || width > maxDimension {
		return errors.New("invalid width")
	}
	if height < minDimension || height > maxDimension {
		return errors.New("invalid height")
	}
	return nil
}

// ValidatePage normalizes 1-based pagination parameters, substituting the
// defaults the REST surface documents (page 1, size 10) for zero values.
func ValidatePage(pageNumber int, pageSize int) (int, int, error) {
	if pageNumber == 0 {
		pageNumber = 1
	}
	if pageSize == 0 {
		pageSize = 10
	}
	if pageNumber < 1 {
		return 0, 0, errors.New("pageNumber must be 1 or greater")
	}
	if pageSize < 1 || pageSize > 100 {
		return 0, 0, errors.New("pageSize must be between 1 and 100")
	}
	return pageNumber, pageSize, nil
}

func ValidateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return errors.New("username must be between 3 and 64 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may only contain letters, digits, dots, dashes and underscores")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	// bcrypt truncates beyond 72 bytes; reject instead of silently losing entropy
	if len(password) > 72 {
		return errors.New("password too long")
	}
	return nil
}
