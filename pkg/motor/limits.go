package motor

import (
	"math"

	"github.com/edp1096/toy-motor/internal/consts"
)

// Constraint identifies which physical limit bounds a torque interval edge.
type Constraint int

const (
	ConstraintPhaseCurrent Constraint = iota // Hard phase current or iq command limit
	ConstraintPower                          // Voltage/impedance (power) limit
)

func (c Constraint) String() string {
	switch c {
	case ConstraintPhaseCurrent:
		return "phase_current"
	case ConstraintPower:
		return "power"
	default:
		return "unknown"
	}
}

// TorqueLimits is the achievable torque interval at one operating point and
// the constraint active at each edge. Value type, immutable once returned.
type TorqueLimits struct {
	Lower           float64 // Most negative achievable torque (N·m)
	Upper           float64 // Most positive achievable torque (N·m)
	LowerConstraint Constraint
	UpperConstraint Constraint
}

// CalcTorqueLimits returns the achievable torque range of the drive at the
// given bus voltage and mechanical rotor speed. Negative voltage is treated
// as zero since only the magnitude matters for the available limit.
//
// The q-axis inductance is used as the machine inductance: saliency is
// neglected and Lq dominates behavior when not heavily flux weakening.
// Panics if the parameters describe a salient machine.
func CalcTorqueLimits(voltage, rotorVel float64, p *Params) TorqueLimits {
	if voltage < 0 {
		voltage = 0
	}
	p.checkNonSalient()

	l := p.Lq
	rs := p.Rs
	lambda := p.FluxLinkage
	iPhaseLim := p.PhaseCurrentCmdLimit
	oc := newOperatingCircle(voltage, rotorVel, p)

	// Start from the hard quadrature current command limits.
	iqLower := p.IqCmdLowerLimit
	iqUpper := p.IqCmdUpperLimit
	limits := TorqueLimits{
		LowerConstraint: ConstraintPhaseCurrent,
		UpperConstraint: ConstraintPhaseCurrent,
	}

	// Voltage/power limit: tighten either bound to the edge of the
	// voltage-limited circle when the circle is narrower.
	if iqLower < oc.iqCenter-oc.iqRadius {
		limits.LowerConstraint = ConstraintPower
		iqLower = oc.iqCenter - oc.iqRadius
	}
	if iqUpper > oc.iqCenter+oc.iqRadius {
		limits.UpperConstraint = ConstraintPower
		iqUpper = oc.iqCenter + oc.iqRadius
	}

	// Phase current limit: intersect the phase current circle with the
	// voltage circle. cosIdq is clamped to absorb geometric infeasibility
	// (the circles not intersecting).
	cosIdq := (oc.vdqMax*oc.vdqMax - oc.z2*iPhaseLim*iPhaseLim -
		lambda*lambda*oc.omegaE*oc.omegaE) /
		(2.0 * math.Max(math.Abs(oc.omegaE), 1.0) * lambda * iPhaseLim * math.Sqrt(oc.z2))
	cosIdq = saturate(cosIdq, -1.0, 1.0)
	thetaDelta := math.Acos(cosIdq)
	thetaRef := 0.0
	if math.Abs(oc.omegaE) > consts.FloatEps {
		thetaRef = math.Atan(rs / (oc.omegaE * l))
	}

	theta := math.Min(thetaRef-thetaDelta, -0.5*math.Pi)
	if oc.idCenter < iPhaseLim*math.Cos(theta) && iPhaseLim*math.Sin(theta) > iqLower {
		limits.LowerConstraint = ConstraintPhaseCurrent
		iqLower = iPhaseLim * math.Sin(theta)
	}

	theta = math.Max(thetaRef+thetaDelta, 0.5*math.Pi)
	if oc.idCenter < iPhaseLim*math.Cos(theta) && iPhaseLim*math.Sin(theta) < iqUpper {
		limits.UpperConstraint = ConstraintPhaseCurrent
		iqUpper = iPhaseLim * math.Sin(theta)
	}

	limits.Lower = p.TorqueConstant() * iqLower
	limits.Upper = p.TorqueConstant() * iqUpper

	return limits
}
