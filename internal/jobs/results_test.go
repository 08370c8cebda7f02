package jobs

import (
	"testing"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeSumsExactly(t *testing.T) {
	states := []string{"00", "01", "10", "11"}
	weights := []float64{0.49, 0.02, 0.02, 0.47}

	for _, shots := range []int{1, 7, 100, 1024, 8191} {
		counts := distribute(shots, states, weights)

		total := 0
		for _, n := range counts {
			total += n
		}
		assert.Equal(t, shots, total, "shots=%d", shots)
	}
}

func TestShapeForKeywordMatch(t *testing.T) {
	cases := []struct {
		jobType     string
		description string
		wantState   string
	}{
		{"bell-state", "", "00"},
		{"grover", "", "101"},
		{"custom", "my bell pair experiment", "00"},
		{"custom", "teleport this qubit", "000"},
		{"custom", "nothing recognizable", "00"},
	}

	for _, tc := range cases {
		shape := shapeFor(&types.Job{Type: tc.jobType, Description: tc.description})
		assert.Equal(t, tc.wantState, shape.states[0], "%s %s", tc.jobType, tc.description)
	}
}

func TestGenerateResultBellState(t *testing.T) {
	s := newTestStore()

	job := &types.Job{Type: "bell-state", Provider: "qsim-local", Shots: 1024}
	result := s.generateResult(job)

	total := 0
	for _, n := range result.Counts {
		total += n
	}
	assert.Equal(t, 1024, total)
	assert.Equal(t, 2, result.Qubits)

	// Bell distribution peaks on the correlated states
	assert.Greater(t, result.Counts["00"], result.Counts["01"])
	assert.Greater(t, result.Counts["11"], result.Counts["10"])
	assert.Contains(t, []string{"00", "11"}, result.MostFrequent)
	assert.Greater(t, result.Fidelity, 0.9)
}

func TestGenerateResultUsesAnalyzedQubits(t *testing.T) {
	s := newTestStore()

	job := &types.Job{
		Type:     "custom",
		Provider: "qsim-local",
		Shots:    256,
		Source:   ghzTemplate,
	}
	result := s.generateResult(job)

	assert.Equal(t, 3, result.Qubits)
}

func TestDescribe(t *testing.T) {
	job := &types.Job{Type: "grover", Provider: "ionq-aria", Status: types.StatusFailed}
	assert.Contains(t, Describe(job), "failed")

	job.Result = &types.JobResult{Shots: 1024, Fidelity: 0.91}
	desc := Describe(job)
	require.Contains(t, desc, "1024 shots")
	require.Contains(t, desc, "0.910")
}
