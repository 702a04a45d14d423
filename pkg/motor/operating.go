package motor

import (
	"math"

	"github.com/edp1096/toy-motor/internal/consts"
)

// operatingCircle describes the voltage-limited feasible current set in the
// dq plane for a non-salient machine: all reachable (id, iq) points lie
// within iqRadius of (idCenter, iqCenter).
type operatingCircle struct {
	omegaE   float64 // Electrical angular speed (rad/s)
	vdqMax   float64 // Maximum applicable dq voltage (V)
	z2       float64 // Impedance magnitude squared (Ω²)
	idCenter float64 // Circle center, d axis (A)
	iqCenter float64 // Circle center, q axis (A)
	iqRadius float64 // Circle radius (A)
}

// newOperatingCircle evaluates the shared circuit quantities used by both
// the torque limit and power calculations. Pure; voltage must already be
// clamped to >= 0 by the caller.
func newOperatingCircle(voltage, rotorVel float64, p *Params) operatingCircle {
	l := p.Lq
	rs := p.Rs
	lambda := p.FluxLinkage
	omegaE := rotorVel * float64(p.NumPolePairs)

	vdqMax := voltage * consts.InvSqrt3 * p.ModulationLimit
	z2 := rs*rs + l*l*omegaE*omegaE

	return operatingCircle{
		omegaE:   omegaE,
		vdqMax:   vdqMax,
		z2:       z2,
		idCenter: -omegaE * omegaE * l * lambda / z2,
		iqCenter: -rs * omegaE * lambda / z2,
		iqRadius: vdqMax / math.Sqrt(z2),
	}
}

func saturate(x, lower, upper float64) float64 {
	if x < lower {
		return lower
	}
	if x > upper {
		return upper
	}
	return x
}
