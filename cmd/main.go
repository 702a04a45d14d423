package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/toy-motor/pkg/analysis"
	"github.com/edp1096/toy-motor/pkg/bus"
	"github.com/edp1096/toy-motor/pkg/motor"
	"github.com/edp1096/toy-motor/pkg/paramset"
	"github.com/edp1096/toy-motor/pkg/util"
)

func getKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k == "OMEGA" || k == "TIME" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Sweep variable first.
	for _, first := range []string{"OMEGA", "TIME"} {
		if _, ok := m[first]; ok {
			keys = append([]string{first}, keys...)
		}
	}
	return keys
}

func printResults(results map[string][]float64) {
	keys := getKeys(results)
	if len(keys) == 0 {
		return
	}

	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")
	for _, k := range keys {
		fmt.Printf("%12s", k)
	}
	fmt.Println()

	for i := range results[keys[0]] {
		for _, k := range keys {
			fmt.Printf("%12.4g", results[k][i])
		}
		fmt.Println()
	}
}

func plotEnvelope(results map[string][]float64, fileName string) error {
	omega := results["OMEGA"]
	upper := make(plotter.XYs, len(omega))
	lower := make(plotter.XYs, len(omega))
	for i := range omega {
		upper[i].X, upper[i].Y = omega[i], results["TQ_MAX"][i]
		lower[i].X, lower[i].Y = omega[i], results["TQ_MIN"][i]
	}

	p := plot.New()
	p.Title.Text = "Torque envelope"
	p.X.Label.Text = "rotor speed (rad/s)"
	p.Y.Label.Text = "torque (N·m)"
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, "upper", upper, "lower", lower); err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, fileName)
}

func runEnvelope(data *paramset.Data, plotFile string) error {
	env, err := analysis.NewEnvelope(&data.Params, data.Voltage,
		data.EnvelopeParam.OmegaStart, data.EnvelopeParam.OmegaStop, data.EnvelopeParam.Points)
	if err != nil {
		return err
	}
	if err := env.Execute(); err != nil {
		return err
	}

	printResults(env.GetResults())

	if plotFile != "" {
		if err := plotEnvelope(env.GetResults(), plotFile); err != nil {
			return fmt.Errorf("writing plot: %v", err)
		}
		fmt.Printf("\nEnvelope plot written to %s\n", plotFile)
	}
	return nil
}

func runTransient(data *paramset.Data) error {
	tp := data.TranParam
	tran, err := analysis.NewTransient(&data.Params, data.Voltage,
		tp.TorqueCmd, tp.Inertia, tp.DragCoeff, tp.TStep, tp.TStop)
	if err != nil {
		return err
	}
	if err := tran.Execute(); err != nil {
		return err
	}

	printResults(tran.GetResults())
	return nil
}

func runPower(data *paramset.Data) error {
	if err := data.Params.Validate(); err != nil {
		return err
	}

	pp := data.PowerParam
	limits := motor.CalcTorqueLimits(data.Voltage, pp.RotorVel, &data.Params)
	power := motor.CalcPower(data.Voltage, pp.Torque, pp.RotorVel, &data.Params)

	fmt.Printf("\nOperating point: %s at %s, %g V bus\n",
		util.FormatTorque(pp.Torque), util.FormatSpeed(pp.RotorVel), data.Voltage)
	fmt.Printf("Torque limits:   [%s (%s), %s (%s)]\n",
		util.FormatTorque(limits.Lower), limits.LowerConstraint,
		util.FormatTorque(limits.Upper), limits.UpperConstraint)
	fmt.Printf("Net power:       %s (generation positive)\n", util.FormatPower(power))
	return nil
}

func runStack(data *paramset.Data) error {
	cfg := bus.Config{
		Levels:              data.StackParam.Levels,
		BusVoltage:          data.Voltage,
		BalancingResistance: data.StackParam.BalancingResistance,
	}
	stack, err := bus.New(&data.Params, cfg)
	if err != nil {
		return err
	}

	loads := make([]bus.Load, cfg.Levels)
	for i := range loads {
		loads[i] = bus.Load{Torque: data.PowerParam.Torque, RotorVel: data.PowerParam.RotorVel}
	}

	result, err := stack.Solve(loads)
	if err != nil {
		return err
	}

	fmt.Printf("\nStacked powertrain, %d levels, %g V bus (%d iterations):\n",
		cfg.Levels, cfg.BusVoltage, result.Iterations)
	for i, v := range result.LevelVoltages {
		fmt.Printf("  level %d: %8.3f V, %s\n", i+1, v, util.FormatPower(result.DrivePowers[i]))
	}
	fmt.Printf("  bus current: %.3f A\n", result.BusCurrent)
	return nil
}

func main() {
	fileName := flag.String("f", "", "motor parameter file")
	plotFile := flag.String("plot", "", "write torque envelope plot (PNG)")
	flag.Parse()

	if *fileName == "" {
		flag.Usage()
		os.Exit(1)
	}

	content, err := os.ReadFile(*fileName)
	if err != nil {
		log.Fatalf("reading %s: %v", *fileName, err)
	}

	data, err := paramset.Parse(string(content))
	if err != nil {
		log.Fatalf("parsing %s: %v", *fileName, err)
	}

	if data.Title != "" {
		fmt.Println(data.Title)
	}

	switch data.Analysis {
	case paramset.AnalysisEnvelope:
		err = runEnvelope(data, *plotFile)
	case paramset.AnalysisTran:
		err = runTransient(data)
	case paramset.AnalysisPower:
		err = runPower(data)
	case paramset.AnalysisStack:
		err = runStack(data)
	default:
		err = fmt.Errorf("no analysis card in %s", *fileName)
	}
	if err != nil {
		log.Fatal(err)
	}
}
