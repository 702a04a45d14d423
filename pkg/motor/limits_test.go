package motor_test

import (
	"math"
	"testing"

	"github.com/edp1096/toy-motor/pkg/motor"
)

func testParams() *motor.Params {
	return &motor.Params{
		Rs:           0.1,
		Ld:           0.001,
		Lq:           0.001,
		FluxLinkage:  0.05,
		NumPolePairs: 8,

		ModulationLimit:      0.98,
		PhaseCurrentCmdLimit: 200,
		IqCmdLowerLimit:      -1000,
		IqCmdUpperLimit:      1000,

		OmegaLossCoeffCubic: 1e-6,
		OmegaLossCoeffSq:    1e-4,
		OmegaLossCoeffLin:   1e-2,
		HysteresisLossCoeff: 1e-6,

		RdsOn:                 0.002,
		SpecificSwitchingLoss: 1e-6,
		FixedLossSqCoeff:      1e-9,
		FixedLossLinCoeff:     1e-7,
		SwitchingFrequency:    15e3,
	}
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalcTorqueLimitsZeroSpeed(t *testing.T) {
	p := testParams()
	limits := motor.CalcTorqueLimits(400, 0, p)

	if limits.LowerConstraint != motor.ConstraintPhaseCurrent {
		t.Errorf("lower constraint = %v, want phase_current", limits.LowerConstraint)
	}
	if limits.UpperConstraint != motor.ConstraintPhaseCurrent {
		t.Errorf("upper constraint = %v, want phase_current", limits.UpperConstraint)
	}

	// At zero speed the interval is symmetric and set by the phase current
	// limit: 1.5 * npp * lambda * 200 A = 120 N·m.
	want := 1.5 * 8 * 0.05 * 200
	if !approxEqual(limits.Upper, want, 1e-9) {
		t.Errorf("upper = %g, want %g", limits.Upper, want)
	}
	if !approxEqual(limits.Lower, -want, 1e-9) {
		t.Errorf("lower = %g, want %g", limits.Lower, -want)
	}
}

func TestCalcTorqueLimitsZeroVoltage(t *testing.T) {
	p := testParams()

	limits := motor.CalcTorqueLimits(0, 0, p)
	if limits.LowerConstraint != motor.ConstraintPower || limits.UpperConstraint != motor.ConstraintPower {
		t.Errorf("constraints = %v/%v, want power/power",
			limits.LowerConstraint, limits.UpperConstraint)
	}
	if limits.Lower != 0 || limits.Upper != 0 {
		t.Errorf("limits = [%g, %g], want [0, 0]", limits.Lower, limits.Upper)
	}

	// Spinning with no voltage: the circle degenerates to its center and
	// both bounds collapse onto the single surviving point.
	limits = motor.CalcTorqueLimits(0, 100, p)
	if limits.LowerConstraint != motor.ConstraintPower || limits.UpperConstraint != motor.ConstraintPower {
		t.Errorf("constraints = %v/%v, want power/power",
			limits.LowerConstraint, limits.UpperConstraint)
	}
	if !approxEqual(limits.Lower, limits.Upper, 1e-9) {
		t.Errorf("limits did not collapse: [%g, %g]", limits.Lower, limits.Upper)
	}
}

func TestCalcTorqueLimitsMonotonicInVoltage(t *testing.T) {
	p := testParams()

	prev := motor.CalcTorqueLimits(0, 200, p)
	for v := 25.0; v <= 900; v += 25 {
		limits := motor.CalcTorqueLimits(v, 200, p)
		if limits.Upper < prev.Upper-1e-9 {
			t.Fatalf("upper limit shrank with voltage: %g V gives %g, %g V gave %g",
				v, limits.Upper, v-25, prev.Upper)
		}
		if limits.Lower > prev.Lower+1e-9 {
			t.Fatalf("lower limit shrank with voltage: %g V gives %g, %g V gave %g",
				v, limits.Lower, v-25, prev.Lower)
		}
		if limits.Lower > limits.Upper {
			t.Fatalf("inverted interval at %g V: [%g, %g]", v, limits.Lower, limits.Upper)
		}
		prev = limits
	}
}

func TestCalcTorqueLimitsConstraintConsistency(t *testing.T) {
	p := testParams()
	kt := p.TorqueConstant()

	// Zero speed, ample voltage: the phase current circle binds and the
	// bound current magnitude equals the phase current limit (id = 0 there).
	limits := motor.CalcTorqueLimits(400, 0, p)
	if got := math.Abs(limits.Upper / kt); !approxEqual(got, p.PhaseCurrentCmdLimit, 1e-9) {
		t.Errorf("phase-limited bound current = %g, want %g", got, p.PhaseCurrentCmdLimit)
	}

	// High speed, low voltage: the voltage circle binds and the bound
	// current lies exactly on the circle edge.
	voltage, rotorVel := 100.0, 300.0
	limits = motor.CalcTorqueLimits(voltage, rotorVel, p)
	if limits.UpperConstraint != motor.ConstraintPower {
		t.Fatalf("upper constraint = %v, want power", limits.UpperConstraint)
	}

	omegaE := rotorVel * float64(p.NumPolePairs)
	vdqMax := voltage / math.Sqrt(3) * p.ModulationLimit
	z2 := p.Rs*p.Rs + p.Lq*p.Lq*omegaE*omegaE
	iqCenter := -p.Rs * omegaE * p.FluxLinkage / z2
	iqRadius := vdqMax / math.Sqrt(z2)

	if got := limits.Upper / kt; !approxEqual(got, iqCenter+iqRadius, 1e-9) {
		t.Errorf("power-limited bound current = %g, want circle edge %g", got, iqCenter+iqRadius)
	}
}

func TestCalcTorqueLimitsNegativeVoltage(t *testing.T) {
	p := testParams()
	got := motor.CalcTorqueLimits(-75, 150, p)
	want := motor.CalcTorqueLimits(0, 150, p)
	if got != want {
		t.Errorf("negative voltage limits = %+v, want zero-voltage limits %+v", got, want)
	}
}

func TestCalcTorqueLimitsSalientPanics(t *testing.T) {
	p := testParams()
	p.Ld = 0.002

	defer func() {
		if recover() == nil {
			t.Error("expected panic for salient machine")
		}
	}()
	motor.CalcTorqueLimits(400, 100, p)
}
