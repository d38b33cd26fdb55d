package app

import (
	"github.com/kart-io/tripplanner/pkg/infra/app/cliflag"
)

// CliOptions abstracts configuration options for reading parameters from the
// command line, a config file and the environment.
type CliOptions interface {
	// Flags returns the flags grouped by option section.
	Flags() cliflag.NamedFlagSets
	// Complete fills in defaults and derived values.
	Complete() error
	// Validate reports every invalid option at once.
	Validate() error
}
