package bus

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-motor/pkg/matrix"
	"github.com/edp1096/toy-motor/pkg/motor"
)

// Config describes a stacked powertrain: Levels motor drives in series
// across one DC bus, each paralleled by a balancing resistor.
type Config struct {
	Levels              int
	BusVoltage          float64 // Total bus voltage (V)
	BalancingResistance float64 // Balancing resistor per level (Ω)
}

// Load is the mechanical operating point of one drive in the stack.
type Load struct {
	Torque   float64 // Commanded torque (N·m)
	RotorVel float64 // Mechanical rotor speed (rad/s)
}

// Result holds the solved electrical state of the stack.
type Result struct {
	LevelVoltages []float64 // Voltage across each level (V)
	DrivePowers   []float64 // Net electrical power of each drive (W, generation positive)
	BusCurrent    float64   // Current drawn from the bus (A)
	Iterations    int
}

// Stack solves the per-level voltage distribution of a stacked powertrain.
// Each drive is a power load whose draw depends on its own level voltage,
// so the ladder is solved with Newton-Raphson iteration: the drive is
// linearized around the previous voltage as a conductance plus companion
// current source, stamped, and re-solved until the node voltages settle.
type Stack struct {
	cfg    Config
	params *motor.Params

	convergence struct {
		maxIter int
		abstol  float64
		reltol  float64
		gmin    float64
	}
}

func New(params *motor.Params, cfg Config) (*Stack, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid motor parameters: %v", err)
	}
	if cfg.Levels < 1 {
		return nil, fmt.Errorf("stack needs at least 1 level, got %d", cfg.Levels)
	}
	if cfg.BusVoltage <= 0 {
		return nil, fmt.Errorf("bus voltage must be positive, got %g", cfg.BusVoltage)
	}
	if cfg.BalancingResistance <= 0 {
		return nil, fmt.Errorf("balancing resistance must be positive, got %g", cfg.BalancingResistance)
	}

	s := &Stack{cfg: cfg, params: params}
	s.convergence.maxIter = 100
	s.convergence.abstol = 1e-9
	s.convergence.reltol = 1e-6
	s.convergence.gmin = 1e-12
	return s, nil
}

// drawCurrent is the current a drive pulls from its level at voltage v.
// motor.CalcPower is generation positive, so a motoring drive draws
// positive current.
func (s *Stack) drawCurrent(v float64, load Load) float64 {
	return -motor.CalcPower(v, load.Torque, load.RotorVel, s.params) / v
}

// Solve computes the level voltages for the given per-level loads.
func (s *Stack) Solve(loads []Load) (*Result, error) {
	n := s.cfg.Levels
	if len(loads) != n {
		return nil, fmt.Errorf("got %d loads for %d levels", len(loads), n)
	}

	// Nodes 1..n top down, ground below level n, branch n+1 for the bus
	// voltage source.
	size := n + 1
	branch := n + 1
	mat, err := matrix.New(size)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()
	mat.SetupElements()

	gBal := 1.0 / s.cfg.BalancingResistance
	levelVolt := make([]float64, n)
	for i := range levelVolt {
		levelVolt[i] = s.cfg.BusVoltage / float64(n)
	}

	newVolt := make([]float64, n)
	for iter := 1; iter <= s.convergence.maxIter; iter++ {
		mat.Clear()

		// Bus voltage source pins node 1.
		mat.AddElement(1, branch, 1)
		mat.AddElement(branch, 1, 1)
		mat.AddRHS(branch, s.cfg.BusVoltage)

		for i := 0; i < n; i++ {
			ni := i + 1
			nj := i + 2
			if i == n-1 {
				nj = 0 // ground
			}

			mat.StampConductance(ni, nj, gBal)

			// Companion model of the drive around the previous voltage.
			v0 := math.Max(levelVolt[i], 1.0)
			dv := 1e-3 * v0
			i0 := s.drawCurrent(v0, loads[i])
			geq := (s.drawCurrent(v0+dv, loads[i]) - s.drawCurrent(v0-dv, loads[i])) / (2 * dv)
			ieq := i0 - geq*v0

			mat.StampConductance(ni, nj, geq)
			mat.StampCurrentSource(ni, nj, ieq)
		}

		mat.LoadGmin(s.convergence.gmin)
		if err := mat.Solve(); err != nil {
			return nil, fmt.Errorf("iteration %d: %v", iter, err)
		}

		sol := mat.Solution()
		for i := 0; i < n; i++ {
			vi := sol[i+1]
			vj := 0.0
			if i < n-1 {
				vj = sol[i+2]
			}
			newVolt[i] = vi - vj
		}

		converged := true
		for i := range newVolt {
			diff := math.Abs(newVolt[i] - levelVolt[i])
			tol := s.convergence.reltol*math.Max(
				math.Abs(newVolt[i]), math.Abs(levelVolt[i])) + s.convergence.abstol
			if diff > tol {
				converged = false
				break
			}
		}
		copy(levelVolt, newVolt)

		if converged {
			result := &Result{
				LevelVoltages: append([]float64(nil), levelVolt...),
				DrivePowers:   make([]float64, n),
				BusCurrent:    -sol[branch],
				Iterations:    iter,
			}
			for i := 0; i < n; i++ {
				result.DrivePowers[i] = motor.CalcPower(
					levelVolt[i], loads[i].Torque, loads[i].RotorVel, s.params)
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("failed to converge in %d iterations", s.convergence.maxIter)
}
