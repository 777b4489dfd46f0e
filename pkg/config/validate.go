package config

import (
	"errors"
	"strings"
)

// Validate reports every missing required field as a joined set of *Error values.
func (c Context) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"appName", c.AppName},
		{"region", c.Region},
		{"environment", c.Environment},
		{"domain", c.Domain},
		{"baseDir", c.BaseDir},
		{"codeStarConnectionArn", c.CodeStarConnectionARN},
		{"repo.owner", c.Repo.Owner},
		{"repo.name", c.Repo.Name},
		{"repo.branch", c.Repo.Branch},
	}

	var errs []error
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, missingField(r.field))
		}
	}
	if c.AppName != "" && strings.ContainsAny(c.AppName, ". /") {
		errs = append(errs, &Error{Code: ErrorCodeInvalidValue, Field: "appName", Message: "must be a single DNS label"})
	}
	return errors.Join(errs...)
}
