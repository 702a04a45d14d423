package util

type IntegrationMethod int

const (
	BackwardEuler IntegrationMethod = iota
	Trapezoidal
)

// CorrectorCoeff returns the leading coefficient c0 of the implicit
// corrector c0*(x1 - x0) = f(x1) [+ f(x0) for the trapezoidal rule].
func CorrectorCoeff(method IntegrationMethod, dt float64) float64 {
	if method == Trapezoidal {
		return 2.0 / dt
	}
	return 1.0 / dt
}

// HistoryWeight returns the weight of f(x0) on the right-hand side of the
// corrector: 0 for backward Euler, 1 for the trapezoidal rule.
func HistoryWeight(method IntegrationMethod) float64 {
	if method == Trapezoidal {
		return 1.0
	}
	return 0.0
}
