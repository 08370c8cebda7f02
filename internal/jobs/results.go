package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantumchain-labs/quantumchain/internal/qasm"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
)

// resultShape describes one canned measurement distribution. Weights are
// relative; counts are scaled so they sum exactly to the requested shots.
type resultShape struct {
	qubits   int
	states   []string
	weights  []float64
	fidelity float64
}

// shapeFor keyword-matches the job type and description against the canned
// result table.
func shapeFor(job *types.Job) resultShape {
	text := strings.ToLower(job.Type + " " + job.Description)

	switch {
	case strings.Contains(text, "bell"):
		return resultShape{
			qubits:   2,
			states:   []string{"00", "11", "01", "10"},
			weights:  []float64{0.49, 0.47, 0.02, 0.02},
			fidelity: 0.96,
		}
	case strings.Contains(text, "teleport"):
		return resultShape{
			qubits:   3,
			states:   []string{"000", "011", "101", "110"},
			weights:  []float64{0.26, 0.25, 0.25, 0.24},
			fidelity: 0.91,
		}
	case strings.Contains(text, "grover"):
		return resultShape{
			qubits:   3,
			states:   []string{"101", "000", "001", "010", "011", "100", "110", "111"},
			weights:  []float64{0.78, 0.032, 0.031, 0.031, 0.031, 0.032, 0.031, 0.032},
			fidelity: 0.89,
		}
	case strings.Contains(text, "qft"):
		return resultShape{
			qubits:   3,
			states:   []string{"000", "001", "010", "011", "100", "101", "110", "111"},
			weights:  []float64{0.13, 0.12, 0.13, 0.12, 0.13, 0.12, 0.13, 0.12},
			fidelity: 0.93,
		}
	case strings.Contains(text, "vqe"):
		return resultShape{
			qubits:   2,
			states:   []string{"01", "10", "00", "11"},
			weights:  []float64{0.44, 0.42, 0.07, 0.07},
			fidelity: 0.88,
		}
	default:
		return resultShape{
			qubits:   2,
			states:   []string{"00", "01", "10", "11"},
			weights:  []float64{0.25, 0.25, 0.25, 0.25},
			fidelity: 0.9,
		}
	}
}

// generateResult builds the payload attached to a completed job. Counts
// always sum to job.Shots.
func (s *Store) generateResult(job *types.Job) *types.JobResult {
	shape := shapeFor(job)

	// Custom circuits get their qubit count from the analyzer
	qubits := shape.qubits
	if job.Source != "" {
		if m, err := qasm.Analyze(job.Source); err == nil {
			qubits = m.Qubits
		}
	}

	counts := distribute(job.Shots, shape.states, shape.weights)

	most := shape.states[0]
	best := 0
	for state, n := range counts {
		if n > best || (n == best && state < most) {
			most = state
			best = n
		}
	}

	// Jitter fidelity a little below the shape's nominal value
	fidelity := shape.fidelity - s.randFloat()*0.03

	var execMs int64
	if job.StartedAt != nil {
		execMs = time.Since(*job.StartedAt).Milliseconds()
	}

	return &types.JobResult{
		Counts:        counts,
		Shots:         job.Shots,
		Fidelity:      fidelity,
		ExecutionMs:   execMs,
		Qubits:        qubits,
		MostFrequent:  most,
		ProviderLabel: job.Provider,
	}
}

// distribute splits shots across states by weight, assigning rounding
// remainder to the heaviest state so the total is exact.
func distribute(shots int, states []string, weights []float64) map[string]int {
	counts := make(map[string]int, len(states))

	var totalWeight float64
	for _, w := range weights {
		totalWeight += w
	}

	assigned := 0
	heaviest := 0
	for i, state := range states {
		n := int(float64(shots) * weights[i] / totalWeight)
		counts[state] = n
		assigned += n
		if weights[i] > weights[heaviest] {
			heaviest = i
		}
	}

	counts[states[heaviest]] += shots - assigned
	return counts
}

// Describe renders a one-line summary used in notifications.
func Describe(job *types.Job) string {
	if job.Result != nil {
		return fmt.Sprintf("%s on %s: %d shots, fidelity %.3f",
			job.Type, job.Provider, job.Result.Shots, job.Result.Fidelity)
	}
	return fmt.Sprintf("%s on %s: %s", job.Type, job.Provider, job.Status)
}
