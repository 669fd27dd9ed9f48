package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation limits
const (
	MinUsernameLength       = 3
	MaxUsernameLength       = 30
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MinJobDescriptionLength = 10
	MaxJobDescriptionLength = 5000
	MinCoverLetterLength    = 10
	MaxCoverLetterLength    = 2000
	MinMilestoneTitleLength = 3
	MaxMilestoneTitleLength = 200
	MaxMilestoneDescLength  = 2000
	MaxReviewTitleLength    = 200
	MaxReviewCommentLength  = 2000
	MaxReasonLength         = 500
	MinMessageLength        = 1
	MaxMessageLength        = 5000
	MinAmount               = 0.0
	MaxAmount               = 100000000.0
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// supported ledger currencies
var validCurrencies = map[string]struct{}{
	"inr": {},
	"usd": {},
	"eur": {},
}

// ValidateLength checks the rune length of a string field.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateEmail checks the email format.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > 254 {
		return fmt.Errorf("email is too long")
	}
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateAmount checks that a money amount is positive and within bounds.
func ValidateAmount(fieldName string, amount float64) error {
	if amount <= MinAmount {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	if amount > MaxAmount {
		return fmt.Errorf("%s exceeds the maximum allowed value", fieldName)
	}
	return nil
}

// ValidateCurrency checks the currency code against the supported set.
func ValidateCurrency(currency string) error {
	if _, ok := validCurrencies[strings.ToLower(currency)]; !ok {
		return fmt.Errorf("unsupported currency %q", currency)
	}
	return nil
}

// ValidateRating checks a review rating.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}
