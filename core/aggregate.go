package core

import (
	"fmt"

	"github.com/skekre98/hostkit/options"
)

// Registrations is everything contributors registered during aggregation.
type Registrations struct {
	Startup   *Hooks
	Shutdown  *Hooks
	Observers *Observers
}

// Aggregate asks each contributor, in list order, to register its startup
// hooks, shutdown hooks, observers and options. The first failure aborts
// aggregation with a *ConfigurationError; there is no partial result.
func Aggregate(host Host, contributors []Contributor, b *options.Builder) (Registrations, error) {
	regs := Registrations{
		Startup:   &Hooks{},
		Shutdown:  &Hooks{},
		Observers: &Observers{},
	}

	for i, c := range contributors {
		if c == nil {
			return Registrations{}, &ConfigurationError{Index: i, Contributor: "<nil>", Stage: StageStartupHooks, Err: fmt.Errorf("nil contributor")}
		}

		steps := []struct {
			stage Stage
			fn    func() error
		}{
			{StageStartupHooks, func() error { return c.RegisterStartupHooks(host, regs.Startup) }},
			{StageShutdownHooks, func() error { return c.RegisterShutdownHooks(host, regs.Shutdown) }},
			{StageObservers, func() error {
				if oc, ok := c.(ObserverContributor); ok {
					return oc.RegisterObservers(host, regs.Observers)
				}
				return nil
			}},
			{StageOptions, func() error { return c.ApplyOptions(host, b) }},
		}

		for _, s := range steps {
			if err := guard(s.fn); err != nil {
				return Registrations{}, &ConfigurationError{
					Index:       i,
					Contributor: fmt.Sprintf("%T", c),
					Stage:       s.stage,
					Err:         err,
				}
			}
		}
	}
	return regs, nil
}

func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return fn()
}
