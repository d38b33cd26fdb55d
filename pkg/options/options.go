// Package options defines the contract shared by every option group of
// the service and helpers for walking a set of groups.
package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Join builds a flag name prefix such as "planner.cache.".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions is implemented by every option group.
type IOptions interface {
	// Complete fills defaults that depend on other fields.
	Complete() error

	// Validate reports every invalid field.
	Validate() []error

	// AddFlags registers the group's flags under the given prefixes.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Group names an option group. The name is used as the flag section and
// as the prefix of Complete errors.
type Group struct {
	Name    string
	Options IOptions
}

// CompleteAll completes groups in order and stops at the first failure.
func CompleteAll(groups []Group) error {
	for _, g := range groups {
		if err := g.Options.Complete(); err != nil {
			return fmt.Errorf("%s: %w", g.Name, err)
		}
	}
	return nil
}

// ValidateAll collects the validation errors of every group.
func ValidateAll(groups []Group) []error {
	var errs []error
	for _, g := range groups {
		errs = append(errs, g.Options.Validate()...)
	}
	return errs
}
