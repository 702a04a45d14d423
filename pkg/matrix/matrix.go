package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SystemMatrix wraps a real sparse MNA system: node/branch equations on the
// left, stacked right-hand side, 1-based indexing throughout.
type SystemMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func New(size int) (*SystemMatrix, error) {
	// Translate is required so elements stay addressable after the first
	// factorization reorders the matrix; the system is restamped every
	// Newton-Raphson iteration.
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		Translate:      true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	return &SystemMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
		config:   config,
	}, nil
}

// SetupElements touches every element once so the sparse structure is fully
// allocated before the first factorization.
func (m *SystemMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *SystemMatrix) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return // ground node or out of range
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *SystemMatrix) AddRHS(i int, value float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += value
}

// StampConductance adds a two-terminal conductance between nodes i and j,
// either of which may be ground (0).
func (m *SystemMatrix) StampConductance(i, j int, g float64) {
	m.AddElement(i, i, g)
	m.AddElement(j, j, g)
	m.AddElement(i, j, -g)
	m.AddElement(j, i, -g)
}

// StampCurrentSource adds a current source driving current from node i into
// node j.
func (m *SystemMatrix) StampCurrentSource(i, j int, current float64) {
	m.AddRHS(i, -current)
	m.AddRHS(j, current)
}

func (m *SystemMatrix) LoadGmin(gmin float64) {
	for i := 1; i <= m.Size; i++ {
		if diag := m.matrix.Diags[i]; diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *SystemMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

func (m *SystemMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %v", err)
	}
	m.solution = solution

	return nil
}

// Solution returns the solution vector, 1-based; index 0 is unused.
func (m *SystemMatrix) Solution() []float64 {
	return m.solution
}

func (m *SystemMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
