package motor

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-motor/internal/consts"
)

// SaliencyTolerance is the largest |Ld - Lq| the model accepts. The circle
// equations below are only valid for a non-salient machine.
const SaliencyTolerance = consts.FloatEps

// Params holds the electrical parameters of a PMSM drive. Populated once at
// setup and treated as read-only afterwards; safe to share between calls.
type Params struct {
	Rs           float64 // Stator resistance (Ω)
	Ld           float64 // d-axis inductance (H)
	Lq           float64 // q-axis inductance (H)
	FluxLinkage  float64 // Permanent magnet flux linkage (Wb)
	NumPolePairs int     // Pole pair count

	ModulationLimit      float64 // Inverter voltage utilization ceiling
	PhaseCurrentCmdLimit float64 // Hard phase current limit (A)
	IqCmdLowerLimit      float64 // Commanded q current floor (A)
	IqCmdUpperLimit      float64 // Commanded q current ceiling (A)

	OmegaLossCoeffCubic float64 // Friction/windage loss, cubic term (W·s³/rad³)
	OmegaLossCoeffSq    float64 // Friction/windage loss, square term (W·s²/rad²)
	OmegaLossCoeffLin   float64 // Friction/windage loss, linear term (W·s/rad)
	HysteresisLossCoeff float64 // Hysteresis and eddy current loss coefficient

	RdsOn                 float64 // Switch on-resistance (Ω)
	SpecificSwitchingLoss float64 // Commutation loss per volt-amp (J/VA)
	FixedLossSqCoeff      float64 // Output capacitance loss, square term (J/V²)
	FixedLossLinCoeff     float64 // Output capacitance loss, linear term (J/V)
	SwitchingFrequency    float64 // Inverter switching frequency (Hz)
}

// Validate checks the caller-side parameter contract. The saliency
// precondition is checked separately at model entry and is fatal there.
func (p *Params) Validate() error {
	if p.NumPolePairs < 1 {
		return fmt.Errorf("num_pole_pairs must be >= 1, got %d", p.NumPolePairs)
	}
	if p.Rs <= 0 {
		return fmt.Errorf("rs must be positive, got %g", p.Rs)
	}
	if p.Lq <= 0 {
		return fmt.Errorf("lq must be positive, got %g", p.Lq)
	}
	if p.FluxLinkage <= 0 {
		return fmt.Errorf("flux_linkage must be positive, got %g", p.FluxLinkage)
	}
	if p.ModulationLimit <= 0 || p.ModulationLimit > 1 {
		return fmt.Errorf("modulation_limit must be in (0, 1], got %g", p.ModulationLimit)
	}
	if p.PhaseCurrentCmdLimit <= 0 {
		return fmt.Errorf("phase_current_cmd_limit must be positive, got %g", p.PhaseCurrentCmdLimit)
	}
	if p.IqCmdLowerLimit > p.IqCmdUpperLimit {
		return fmt.Errorf("iq_cmd_lower_limit %g exceeds iq_cmd_upper_limit %g",
			p.IqCmdLowerLimit, p.IqCmdUpperLimit)
	}
	if p.RdsOn < 0 || p.SwitchingFrequency < 0 {
		return fmt.Errorf("controller loss parameters must be non-negative")
	}
	return nil
}

// TorqueConstant returns the torque per unit q-axis current (N·m/A).
func (p *Params) TorqueConstant() float64 {
	return consts.TorqueFactor * float64(p.NumPolePairs) * p.FluxLinkage
}

func (p *Params) checkNonSalient() {
	if math.Abs(p.Ld-p.Lq) > SaliencyTolerance {
		panic(fmt.Sprintf("motor: salient machine not supported (Ld=%g Lq=%g)", p.Ld, p.Lq))
	}
}
