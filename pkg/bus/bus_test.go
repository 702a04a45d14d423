package bus_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-motor/pkg/bus"
	"github.com/edp1096/toy-motor/pkg/motor"
)

func stackParams() *motor.Params {
	return &motor.Params{
		Rs:           0.1,
		Ld:           0.001,
		Lq:           0.001,
		FluxLinkage:  0.05,
		NumPolePairs: 8,

		ModulationLimit:      0.95,
		PhaseCurrentCmdLimit: 220,
		IqCmdLowerLimit:      -250,
		IqCmdUpperLimit:      250,

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

func TestSolveSymmetricStack(t *testing.T) {
	cfg := bus.Config{Levels: 3, BusVoltage: 850, BalancingResistance: 100e3}
	stack, err := bus.New(stackParams(), cfg)
	require.NoError(t, err)

	loads := []bus.Load{
		{Torque: 50, RotorVel: 100},
		{Torque: 50, RotorVel: 100},
		{Torque: 50, RotorVel: 100},
	}
	result, err := stack.Solve(loads)
	require.NoError(t, err)

	// Identical loads split the bus evenly.
	for i, v := range result.LevelVoltages {
		assert.InDelta(t, cfg.BusVoltage/3, v, 1e-6, "level %d voltage", i)
	}

	sum := 0.0
	for _, v := range result.LevelVoltages {
		sum += v
	}
	assert.InDelta(t, cfg.BusVoltage, sum, 1e-6, "level voltages must sum to the bus voltage")

	// Motoring stack draws current from the bus.
	assert.Greater(t, result.BusCurrent, 0.0)
	assert.Less(t, result.Iterations, 100)

	// Bus current matches the per-level draw plus the balancing resistor.
	v := result.LevelVoltages[0]
	wantCurrent := -result.DrivePowers[0]/v + v/cfg.BalancingResistance
	assert.InDelta(t, wantCurrent, result.BusCurrent, 1e-3)
}

func TestSolveGeneratingStack(t *testing.T) {
	cfg := bus.Config{Levels: 3, BusVoltage: 850, BalancingResistance: 100e3}
	stack, err := bus.New(stackParams(), cfg)
	require.NoError(t, err)

	loads := []bus.Load{
		{Torque: -50, RotorVel: 100},
		{Torque: -50, RotorVel: 100},
		{Torque: -50, RotorVel: 100},
	}
	result, err := stack.Solve(loads)
	require.NoError(t, err)

	// Braking drives push current back into the bus.
	assert.Less(t, result.BusCurrent, 0.0)
	for i, p := range result.DrivePowers {
		assert.Greater(t, p, 0.0, "drive %d should be generating", i)
	}
}

func TestSolveAsymmetricStack(t *testing.T) {
	cfg := bus.Config{Levels: 4, BusVoltage: 850, BalancingResistance: 100e3}
	stack, err := bus.New(stackParams(), cfg)
	require.NoError(t, err)

	loads := []bus.Load{
		{Torque: 60, RotorVel: 120},
		{Torque: 40, RotorVel: 120},
		{Torque: 50, RotorVel: 100},
		{Torque: 50, RotorVel: 140},
	}
	result, err := stack.Solve(loads)
	require.NoError(t, err)

	sum := 0.0
	for i, v := range result.LevelVoltages {
		require.False(t, math.IsNaN(v), "level %d voltage is NaN", i)
		assert.Greater(t, v, 0.0, "level %d voltage", i)
		assert.Less(t, v, cfg.BusVoltage, "level %d voltage", i)
		sum += v
	}
	assert.InDelta(t, cfg.BusVoltage, sum, 1e-6)
}

func TestSolveLoadCountMismatch(t *testing.T) {
	cfg := bus.Config{Levels: 3, BusVoltage: 850, BalancingResistance: 100e3}
	stack, err := bus.New(stackParams(), cfg)
	require.NoError(t, err)

	_, err = stack.Solve([]bus.Load{{Torque: 50, RotorVel: 100}})
	assert.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  bus.Config
	}{
		{"zero levels", bus.Config{Levels: 0, BusVoltage: 850, BalancingResistance: 100e3}},
		{"zero voltage", bus.Config{Levels: 3, BusVoltage: 0, BalancingResistance: 100e3}},
		{"zero balancing", bus.Config{Levels: 3, BusVoltage: 850, BalancingResistance: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bus.New(stackParams(), tc.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	p := stackParams()
	p.NumPolePairs = 0
	_, err := bus.New(p, bus.Config{Levels: 3, BusVoltage: 850, BalancingResistance: 100e3})
	assert.Error(t, err)
}
