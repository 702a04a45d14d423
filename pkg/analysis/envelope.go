package analysis

import (
	"fmt"

	"github.com/edp1096/toy-motor/pkg/motor"
)

// Envelope sweeps rotor speed at fixed bus voltage and records the torque
// limits and the net electrical power at each bound. Result columns: OMEGA,
// TQ_MIN, TQ_MAX, LIM_MIN, LIM_MAX (constraint codes), P_MIN, P_MAX.
type Envelope struct {
	BaseAnalysis
	params     *motor.Params
	voltage    float64
	omegaStart float64
	omegaStop  float64
	points     int
}

func NewEnvelope(params *motor.Params, voltage, omegaStart, omegaStop float64, points int) (*Envelope, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid motor parameters: %v", err)
	}
	if points < 2 {
		return nil, fmt.Errorf("envelope needs at least 2 points, got %d", points)
	}
	if omegaStop < omegaStart {
		return nil, fmt.Errorf("omega range [%g, %g] is inverted", omegaStart, omegaStop)
	}

	return &Envelope{
		BaseAnalysis: *NewBaseAnalysis(),
		params:       params,
		voltage:      voltage,
		omegaStart:   omegaStart,
		omegaStop:    omegaStop,
		points:       points,
	}, nil
}

func (e *Envelope) Execute() error {
	step := (e.omegaStop - e.omegaStart) / float64(e.points-1)

	for i := 0; i < e.points; i++ {
		omega := e.omegaStart + float64(i)*step
		limits := motor.CalcTorqueLimits(e.voltage, omega, e.params)

		e.StorePoint(map[string]float64{
			"OMEGA":   omega,
			"TQ_MIN":  limits.Lower,
			"TQ_MAX":  limits.Upper,
			"LIM_MIN": float64(limits.LowerConstraint),
			"LIM_MAX": float64(limits.UpperConstraint),
			"P_MIN":   motor.CalcPower(e.voltage, limits.Lower, omega, e.params),
			"P_MAX":   motor.CalcPower(e.voltage, limits.Upper, omega, e.params),
		})
	}

	return nil
}
