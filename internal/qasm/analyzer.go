package qasm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Metrics is the heuristic summary of an OpenQASM 2.0 circuit. The source is
// treated as opaque text and scanned with regular expressions; this is a
// dashboard estimate, not a parse.
type Metrics struct {
	Qubits        int            `json:"qubits"`
	ClassicalBits int            `json:"classical_bits"`
	GateCounts    map[string]int `json:"gate_counts"`
	TotalGates    int            `json:"total_gates"`
	TwoQubitGates int            `json:"two_qubit_gates"`
	Measurements  int            `json:"measurements"`
	Depth         int            `json:"depth"`
	Entangling    bool           `json:"entangling"`
}

var (
	qregRe    = regexp.MustCompile(`(?m)^\s*qreg\s+\w+\s*\[\s*(\d+)\s*\]`)
	cregRe    = regexp.MustCompile(`(?m)^\s*creg\s+\w+\s*\[\s*(\d+)\s*\]`)
	measureRe = regexp.MustCompile(`(?m)^\s*measure\b`)
	commentRe = regexp.MustCompile(`//[^\n]*`)
)

// gateRes maps gate names to the pattern matching their applications.
// Built once; a gate statement is "<name> args ;" or "<name>(params) args ;".
var gateRes = buildGateRes()

var gateNames = []string{
	"h", "x", "y", "z", "s", "sdg", "t", "tdg",
	"rx", "ry", "rz", "u1", "u2", "u3",
	"cx", "cy", "cz", "ch", "crz", "cu1", "cu3", "swap",
	"ccx", "cswap",
}

var twoQubitGates = map[string]bool{
	"cx": true, "cy": true, "cz": true, "ch": true,
	"crz": true, "cu1": true, "cu3": true, "swap": true,
	"ccx": true, "cswap": true,
}

var entanglingGates = map[string]bool{
	"cx": true, "cz": true, "ccx": true, "cy": true, "ch": true,
}

func buildGateRes() map[string]*regexp.Regexp {
	res := make(map[string]*regexp.Regexp, len(gateNames))
	for _, name := range gateNames {
		res[name] = regexp.MustCompile(`(?m)^\s*` + name + `(\s|\()`)
	}
	return res
}

// Analyze scans QASM text and derives the cosmetic circuit metrics shown in
// the dashboard. It returns an error for empty input or missing qreg.
func Analyze(source string) (*Metrics, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("source cannot be empty")
	}

	// Strip line comments so gate names inside them are not counted
	source = commentRe.ReplaceAllString(source, "")

	m := &Metrics{GateCounts: make(map[string]int)}

	for _, match := range qregRe.FindAllStringSubmatch(source, -1) {
		if n, err := strconv.Atoi(match[1]); err == nil {
			m.Qubits += n
		}
	}
	if m.Qubits == 0 {
		return nil, fmt.Errorf("no qreg declaration found")
	}

	for _, match := range cregRe.FindAllStringSubmatch(source, -1) {
		if n, err := strconv.Atoi(match[1]); err == nil {
			m.ClassicalBits += n
		}
	}

	for _, name := range gateNames {
		count := len(gateRes[name].FindAllString(source, -1))
		if count == 0 {
			continue
		}
		m.GateCounts[name] = count
		m.TotalGates += count
		if twoQubitGates[name] {
			m.TwoQubitGates += count
		}
		if entanglingGates[name] {
			m.Entangling = true
		}
	}

	m.Measurements = len(measureRe.FindAllString(source, -1))

	m.Depth = int(math.Ceil(float64(m.TotalGates) / float64(m.Qubits)))
	if m.TotalGates > 0 && m.Depth == 0 {
		m.Depth = 1
	}

	return m, nil
}

// TwoQubitRatio is the share of multi-qubit gates in the circuit.
func (m *Metrics) TwoQubitRatio() float64 {
	if m.TotalGates == 0 {
		return 0
	}
	return float64(m.TwoQubitGates) / float64(m.TotalGates)
}

// EstimateRuntimeMs is a canned per-gate timing model: single-qubit gates at
// 50ns, two-qubit gates at 300ns, measurement at 1us, scaled per shot.
func (m *Metrics) EstimateRuntimeMs(shots int) float64 {
	singles := m.TotalGates - m.TwoQubitGates
	perShotNs := float64(singles)*50 + float64(m.TwoQubitGates)*300 + float64(m.Measurements)*1000
	return perShotNs * float64(shots) / 1e6
}
