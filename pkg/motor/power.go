package motor

import (
	"math"

	"github.com/edp1096/toy-motor/internal/consts"
)

// CalcPower returns the net electrical power of the drive when producing
// torque at the given rotor speed and bus voltage. Sign convention is
// positive for generation. Losses are computed directly from the operating
// current point instead of an efficiency lookup table.
//
// Torque produced by hysteresis and eddy current losses is ignored.
// Panics if the parameters describe a salient machine.
func CalcPower(voltage, torque, rotorVel float64, p *Params) float64 {
	if voltage < 0 {
		voltage = 0
	}
	p.checkNonSalient()

	oc := newOperatingCircle(voltage, rotorVel, p)

	// Saliency and magnetic loss torque are neglected, so all torque comes
	// from q current.
	iq := torque / p.TorqueConstant()

	// Follow the path minimizing phase current for the given torque: stay on
	// the id = 0 line, transitioning to impedance limited behavior. If the
	// commanded point is unreachable use the nearest feasible point,
	// id = short circuit current; mild limit violations are okay.
	peakPhaseCurrentSq := iq * iq
	iqHeight := iq - oc.iqCenter
	if math.Abs(iqHeight) > oc.iqRadius {
		peakPhaseCurrentSq += oc.idCenter * oc.idCenter
	} else {
		id := oc.idCenter + math.Sqrt(oc.iqRadius*oc.iqRadius-iqHeight*iqHeight)
		if id < 0 {
			// Flux weakening current contributes to the phase magnitude.
			peakPhaseCurrentSq += id * id
		}
	}

	mechanicalPower := -torque * rotorVel

	// Three phases; 1/2 converts peak to rms.
	resistiveLoss := -consts.TorqueFactor * peakPhaseCurrentSq * p.Rs

	// Friction and windage from a polynomial fit in speed.
	speedLoss := -(p.OmegaLossCoeffCubic*rotorVel*rotorVel +
		p.OmegaLossCoeffSq*rotorVel +
		p.OmegaLossCoeffLin) * rotorVel

	// Hysteresis and eddy current losses; 0.5 converts peak to rms.
	hysteresisLoss := -0.5 * p.HysteresisLossCoeff * peakPhaseCurrentSq * rotorVel * rotorVel

	controllerLoss := CalcControllerLoss(voltage, peakPhaseCurrentSq, p)

	return mechanicalPower + resistiveLoss + speedLoss + hysteresisLoss + controllerLoss
}

// CalcControllerLoss returns the inverter semiconductor loss for the given
// bus voltage and squared peak phase current. Always <= 0 for valid inputs.
func CalcControllerLoss(voltage, peakPhaseCurrentSq float64, p *Params) float64 {
	// Conduction over 3 phases; synchronous switching keeps one leg of each
	// half bridge conducting at all times.
	conductionLoss := -consts.TorqueFactor * peakPhaseCurrentSq * p.RdsOn

	// Commutation loss, proportional to bus voltage times average phase
	// current.
	variableSwitchingLossPerCycle := -(3.0 * 2.0 / math.Pi) * voltage *
		math.Sqrt(peakPhaseCurrentSq) * p.SpecificSwitchingLoss

	// Output capacitance loss. The capacitance falls with voltage; a linear
	// fit is accurate enough over the operating range.
	fixedSwitchingLossPerCycle := -3.0 *
		(p.FixedLossSqCoeff*voltage + p.FixedLossLinCoeff) * voltage

	return conductionLoss + p.SwitchingFrequency*
		(variableSwitchingLossPerCycle+fixedSwitchingLossPerCycle)
}
