package domain

import (
	"strings"
	"time"
)

type Profile struct {
	ID           string
	Name         string
	UserTimezone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Profile) Validate() error {
	var errs []FieldError
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "must not be empty"})
	}
	if p.UserTimezone == "" {
		errs = append(errs, FieldError{Field: "userTimezone", Message: "must not be empty"})
	} else if _, err := time.LoadLocation(p.UserTimezone); err != nil {
		errs = append(errs, FieldError{Field: "userTimezone", Message: "invalid IANA timezone"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
