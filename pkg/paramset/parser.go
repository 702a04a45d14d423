package paramset

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/edp1096/toy-motor/pkg/motor"
)

type AnalysisType int

const (
	AnalysisNone AnalysisType = iota
	AnalysisEnvelope
	AnalysisTran
	AnalysisPower
	AnalysisStack
)

// Data is a parsed motor parameter file: the drive parameters, the bus
// voltage, and at most one analysis card.
type Data struct {
	Title    string
	Params   motor.Params
	Voltage  float64 // Bus voltage from the .voltage card (V)
	Analysis AnalysisType

	EnvelopeParam struct {
		OmegaStart float64 // sweep start (rad/s)
		OmegaStop  float64 // sweep stop (rad/s)
		Points     int
	}
	TranParam struct {
		TStep     float64 // timestep (s)
		TStop     float64 // stop time (s)
		TorqueCmd float64 // commanded torque (N·m)
		Inertia   float64 // rotor inertia (kg·m²)
		DragCoeff float64 // load torque coefficient (N·m·s²/rad²)
	}
	PowerParam struct {
		Torque   float64 // torque (N·m)
		RotorVel float64 // rotor speed (rad/s)
	}
	StackParam struct {
		Levels              int
		BalancingResistance float64 // per level (Ω)
	}
}

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var requiredKeys = []string{
	"rs", "ld", "lq", "flux_linkage", "num_pole_pairs",
	"modulation_limit", "phase_current_cmd_limit",
	"iq_cmd_lower_limit", "iq_cmd_upper_limit",
}

// Parse reads a motor parameter file. First line is the title; `*` starts a
// comment; `.` starts an analysis card; everything else is `key = value`
// with optional SI unit suffix.
func Parse(input string) (*Data, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	data := &Data{}

	// Title or comment
	if scanner.Scan() {
		data.Title = strings.TrimPrefix(scanner.Text(), "*")
		data.Title = strings.TrimSpace(data.Title)
	}

	seen := make(map[string]bool)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		// Trailing comment
		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if len(line) == 0 {
				continue
			}
		}

		if strings.HasPrefix(line, ".") {
			if err := parseCard(data, line); err != nil {
				return nil, err
			}
			continue
		}

		if err := parseKeyValue(data, line, seen); err != nil {
			return nil, err
		}
	}

	for _, key := range requiredKeys {
		if !seen[key] {
			return nil, fmt.Errorf("missing required parameter: %s", key)
		}
	}

	if err := data.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter set: %v", err)
	}

	return data, nil
}

func parseKeyValue(data *Data, line string, seen map[string]bool) error {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected key = value, got: %s", line)
	}
	key := strings.ToLower(strings.TrimSpace(parts[0]))
	valStr := strings.TrimSpace(parts[1])

	if key == "num_pole_pairs" {
		npp, err := strconv.Atoi(valStr)
		if err != nil {
			return fmt.Errorf("parsing %s: %v", key, err)
		}
		data.Params.NumPolePairs = npp
		seen[key] = true
		return nil
	}

	value, err := ParseValue(valStr)
	if err != nil {
		return fmt.Errorf("parsing %s: %v", key, err)
	}

	switch key {
	case "rs":
		data.Params.Rs = value
	case "ld":
		data.Params.Ld = value
	case "lq":
		data.Params.Lq = value
	case "flux_linkage":
		data.Params.FluxLinkage = value
	case "modulation_limit":
		data.Params.ModulationLimit = value
	case "phase_current_cmd_limit":
		data.Params.PhaseCurrentCmdLimit = value
	case "iq_cmd_lower_limit":
		data.Params.IqCmdLowerLimit = value
	case "iq_cmd_upper_limit":
		data.Params.IqCmdUpperLimit = value
	case "omega_loss_coefficient_cubic":
		data.Params.OmegaLossCoeffCubic = value
	case "omega_loss_coefficient_sq":
		data.Params.OmegaLossCoeffSq = value
	case "omega_loss_coefficient_lin":
		data.Params.OmegaLossCoeffLin = value
	case "hysteresis_loss_coefficient":
		data.Params.HysteresisLossCoeff = value
	case "rds_on":
		data.Params.RdsOn = value
	case "specific_switching_loss":
		data.Params.SpecificSwitchingLoss = value
	case "fixed_loss_sq_coeff":
		data.Params.FixedLossSqCoeff = value
	case "fixed_loss_lin_coeff":
		data.Params.FixedLossLinCoeff = value
	case "switching_frequency":
		data.Params.SwitchingFrequency = value
	default:
		return fmt.Errorf("unknown parameter: %s", key)
	}

	seen[key] = true
	return nil
}

func parseCard(data *Data, line string) error {
	fields := strings.Fields(line)
	card := strings.ToLower(fields[0])
	args := fields[1:]

	floats := make([]float64, len(args))
	for i, arg := range args {
		v, err := ParseValue(arg)
		if err != nil {
			return fmt.Errorf("%s argument %d: %v", card, i+1, err)
		}
		floats[i] = v
	}

	switch card {
	case ".voltage":
		if len(args) != 1 {
			return fmt.Errorf(".voltage takes 1 argument, got %d", len(args))
		}
		data.Voltage = floats[0]

	case ".envelope": // .envelope OMEGA_START OMEGA_STOP POINTS
		if len(args) != 3 {
			return fmt.Errorf(".envelope takes 3 arguments, got %d", len(args))
		}
		data.Analysis = AnalysisEnvelope
		data.EnvelopeParam.OmegaStart = floats[0]
		data.EnvelopeParam.OmegaStop = floats[1]
		data.EnvelopeParam.Points = int(floats[2])

	case ".tran": // .tran TSTEP TSTOP TORQUE_CMD INERTIA DRAG
		if len(args) != 5 {
			return fmt.Errorf(".tran takes 5 arguments, got %d", len(args))
		}
		data.Analysis = AnalysisTran
		data.TranParam.TStep = floats[0]
		data.TranParam.TStop = floats[1]
		data.TranParam.TorqueCmd = floats[2]
		data.TranParam.Inertia = floats[3]
		data.TranParam.DragCoeff = floats[4]

	case ".power": // .power TORQUE ROTOR_VEL
		if len(args) != 2 {
			return fmt.Errorf(".power takes 2 arguments, got %d", len(args))
		}
		data.Analysis = AnalysisPower
		data.PowerParam.Torque = floats[0]
		data.PowerParam.RotorVel = floats[1]

	case ".stack": // .stack LEVELS BALANCING_RESISTANCE
		if len(args) != 2 {
			return fmt.Errorf(".stack takes 2 arguments, got %d", len(args))
		}
		data.Analysis = AnalysisStack
		data.StackParam.Levels = int(floats[0])
		data.StackParam.BalancingResistance = floats[1]

	default:
		return fmt.Errorf("unknown card: %s", card)
	}

	return nil
}

// ParseValue - Parse value and factor. 1k -> 1000
func ParseValue(val string) (float64, error) {
	re := regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGKkmunpf])?$`)
	matches := re.FindStringSubmatch(strings.TrimSpace(val))

	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %s", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	if matches[2] != "" {
		if multiplier, ok := unitMap[matches[2]]; ok {
			num *= multiplier
		}
	}

	return num, nil
}
