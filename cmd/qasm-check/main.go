package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/quantumchain-labs/quantumchain/internal/qasm"
)

func main() {
	shots := flag.Int("shots", 1024, "shots used for the runtime estimate")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: qasm-check [-shots n] <circuit.qasm>\n")
		os.Exit(2)
	}

	source, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		os.Exit(1)
	}

	metrics, err := qasm.Analyze(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze error: %v\n", err)
		os.Exit(1)
	}

	out := struct {
		*qasm.Metrics
		TwoQubitRatio      float64 `json:"two_qubit_ratio"`
		EstimatedRuntimeMs float64 `json:"estimated_runtime_ms"`
	}{
		Metrics:            metrics,
		TwoQubitRatio:      metrics.TwoQubitRatio(),
		EstimatedRuntimeMs: metrics.EstimateRuntimeMs(*shots),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(1)
	}
}
