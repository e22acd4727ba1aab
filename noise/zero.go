package noise

import (
	impedance "github.com/milosgajdos/go-impedance"
)

// Zero is zero noise i.e. no noise
type Zero struct{}

// Sample returns zero wrench.
func (Zero) Sample() impedance.Wrench {
	return impedance.Wrench{}
}

// Reset does nothing: it's here to implement impedance.Noise interface
func (Zero) Reset() {}

// String implements the Stringer interface.
func (Zero) String() string {
	return "Zero{}"
}
