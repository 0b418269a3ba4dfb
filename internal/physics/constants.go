package physics

import (
	"fmt"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

const (
	DefaultGravity = 9.8
	DefaultMass    = 5.0
)

func unknownParam(name string) error {
	return fmt.Errorf("%w: %s", dynamo.ErrUnknownParam, name)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func channel(u dynamo.Control, i int) float64 {
	if i < len(u) {
		return u[i]
	}
	return 0
}

var (
	_ dynamo.Configurable = (*Integrator)(nil)
	_ dynamo.Configurable = (*Oven)(nil)
	_ dynamo.Configurable = (*Tank)(nil)
	_ dynamo.Configurable = (*VerticalDrone)(nil)
	_ dynamo.Configurable = (*Drone2D)(nil)
	_ dynamo.Configurable = (*Rocket)(nil)
)
