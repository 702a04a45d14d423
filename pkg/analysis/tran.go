package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-motor/pkg/motor"
	"github.com/edp1096/toy-motor/pkg/util"
)

// Transient integrates the rotor mechanical equation
//
//	J * domega/dt = tau_cmd - drag * omega * |omega|
//
// with the torque command clamped each step to the achievable limits at the
// current speed. Steps use an implicit corrector; the difference between
// the backward Euler and trapezoidal solutions serves as the local
// truncation estimate for step control. Result columns: TIME, OMEGA,
// TORQUE, POWER.
type Transient struct {
	BaseAnalysis
	params    *motor.Params
	voltage   float64
	torqueCmd float64
	inertia   float64
	dragCoeff float64

	time     float64
	omega    float64
	stopTime float64
	timeStep float64
	maxStep  float64
	minStep  float64
	trtol    float64
}

func NewTransient(params *motor.Params, voltage, torqueCmd, inertia, dragCoeff, tStep, tStop float64) (*Transient, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid motor parameters: %v", err)
	}
	if inertia <= 0 {
		return nil, fmt.Errorf("inertia must be positive, got %g", inertia)
	}
	if dragCoeff < 0 {
		return nil, fmt.Errorf("drag coefficient must be non-negative, got %g", dragCoeff)
	}
	if tStep <= 0 || tStop <= 0 || tStep > tStop {
		return nil, fmt.Errorf("bad time range: step %g, stop %g", tStep, tStop)
	}

	return &Transient{
		BaseAnalysis: *NewBaseAnalysis(),
		params:       params,
		voltage:      voltage,
		torqueCmd:    torqueCmd,
		inertia:      inertia,
		dragCoeff:    dragCoeff,
		stopTime:     tStop,
		timeStep:     tStep,
		maxStep:      tStep,
		minStep:      tStep / 50.0,
		trtol:        7.0,
	}, nil
}

// clampedTorque limits the command to the achievable envelope at omega.
func (tr *Transient) clampedTorque(omega float64) float64 {
	limits := motor.CalcTorqueLimits(tr.voltage, omega, tr.params)
	if tr.torqueCmd < limits.Lower {
		return limits.Lower
	}
	if tr.torqueCmd > limits.Upper {
		return limits.Upper
	}
	return tr.torqueCmd
}

// accel is the rotor angular acceleration at omega.
func (tr *Transient) accel(omega float64) float64 {
	return (tr.clampedTorque(omega) - tr.dragCoeff*omega*math.Abs(omega)) / tr.inertia
}

func (tr *Transient) Execute() error {
	tr.StorePoint(map[string]float64{
		"TIME":   0,
		"OMEGA":  tr.omega,
		"TORQUE": tr.clampedTorque(tr.omega),
		"POWER":  motor.CalcPower(tr.voltage, tr.clampedTorque(tr.omega), tr.omega, tr.params),
	})

	for tr.time < tr.stopTime {
		dt := tr.timeStep
		if tr.time+dt > tr.stopTime {
			// Exact remainder, so the last stored point lands on stopTime.
			dt = tr.stopTime - tr.time
		}

		var omegaNext float64
		for {
			omegaBE, errBE := tr.solveStep(util.BackwardEuler, dt)
			omegaTR, errTR := tr.solveStep(util.Trapezoidal, dt)
			if errBE != nil || errTR != nil {
				if dt > tr.minStep {
					dt /= 2
					continue
				}
				return fmt.Errorf("failed to converge at t=%g", tr.time)
			}

			lte := math.Abs(omegaTR - omegaBE)
			tol := tr.trtol * (tr.convergence.reltol*math.Abs(omegaTR) + tr.convergence.abstol)
			if lte > tol && dt > tr.minStep {
				dt /= 2
				continue
			}

			omegaNext = omegaTR
			break
		}

		tr.omega = omegaNext
		tr.time += dt

		torque := tr.clampedTorque(tr.omega)
		tr.StorePoint(map[string]float64{
			"TIME":   tr.time,
			"OMEGA":  tr.omega,
			"TORQUE": torque,
			"POWER":  motor.CalcPower(tr.voltage, torque, tr.omega, tr.params),
		})

		tr.timeStep = dt
		if tr.time < tr.stopTime && tr.timeStep < tr.maxStep {
			tr.timeStep *= 1.2
			if tr.timeStep > tr.maxStep {
				tr.timeStep = tr.maxStep
			}
		}
	}

	return nil
}

// solveStep solves the implicit corrector for one step of the given method
// with scalar Newton iteration.
func (tr *Transient) solveStep(method util.IntegrationMethod, dt float64) (float64, error) {
	c0 := util.CorrectorCoeff(method, dt)
	hw := util.HistoryWeight(method)
	f0 := tr.accel(tr.omega)

	omega := tr.omega // initial guess
	for iter := 0; iter < tr.convergence.maxIter; iter++ {
		g := c0*(omega-tr.omega) - (tr.accel(omega) + hw*f0)

		h := 1e-6 * math.Max(math.Abs(omega), 1.0)
		fprime := (tr.accel(omega+h) - tr.accel(omega-h)) / (2 * h)
		gprime := c0 - fprime
		if gprime == 0 {
			return 0, fmt.Errorf("singular corrector at omega=%g", omega)
		}

		delta := g / gprime
		omega -= delta

		if math.Abs(delta) <= tr.convergence.reltol*math.Abs(omega)+tr.convergence.abstol {
			return omega, nil
		}
	}

	return 0, fmt.Errorf("corrector failed to converge in %d iterations", tr.convergence.maxIter)
}
