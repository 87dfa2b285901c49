package ioport

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akitaio/sim"
)

// Config is the resolved timing of one port model.
type Config struct {
	// Addresses names the media the port bridges, such as a tty path or a
	// list of CAN interfaces.
	Addresses []string

	// Period is the interval between two activations.
	Period sim.VTimeInSec

	// Delta is how long after an activation the drained payloads appear on
	// the output port.
	Delta sim.VTimeInSec

	// Strict rejects a Delta that is not shorter than Period.
	Strict bool
}

// Validate reports every problem of the configuration.
func (c Config) Validate() error {
	var errs []error

	if len(c.Addresses) == 0 {
		errs = append(errs, errors.New("no address given"))
	}

	for i, a := range c.Addresses {
		if a == "" {
			errs = append(errs, fmt.Errorf("address %d is empty", i))
		}
	}

	if c.Period <= 0 {
		errs = append(errs,
			fmt.Errorf("period must be positive, got %v", c.Period))
	}

	if c.Delta <= 0 {
		errs = append(errs,
			fmt.Errorf("delta must be positive, got %v", c.Delta))
	}

	if c.Strict && c.Period > 0 && c.Delta >= c.Period {
		errs = append(errs, fmt.Errorf(
			"delta %v is not shorter than period %v", c.Delta, c.Period))
	}

	return errors.Join(errs...)
}

// DeltaOverlapsPeriod tells if payloads can be emitted after the next
// activation has already drained the bridge again.
func (c Config) DeltaOverlapsPeriod() bool {
	return c.Delta >= c.Period
}
