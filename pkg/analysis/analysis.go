package analysis

// Analysis is a runnable study producing named result columns.
type Analysis interface {
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	results     map[string][]float64 // key: variable name, value: column data
	convergence struct {
		maxIter int
		abstol  float64
		reltol  float64
	}
}

func NewBaseAnalysis() *BaseAnalysis {
	ba := &BaseAnalysis{results: make(map[string][]float64)}

	ba.convergence.maxIter = 50
	ba.convergence.abstol = 1e-9
	ba.convergence.reltol = 1e-6

	return ba
}

// StorePoint appends one value to every named column.
func (a *BaseAnalysis) StorePoint(point map[string]float64) {
	for name, value := range point {
		a.results[name] = append(a.results[name], value)
	}
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}
