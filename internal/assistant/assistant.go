package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Reply is the assistant's answer plus where it came from.
type Reply struct {
	Text   string `json:"reply"`
	Source string `json:"source"`
}

const (
	SourceCanned = "canned"
	SourceLLM    = "llm"
)

const fallbackAnswer = "I can help with job submission, circuit templates, QASM analysis, " +
	"provider health, gas estimates and transaction logs. Try asking about one of those."

// cannedAnswers maps lowercase keywords to answers. On a question matching
// several keywords the longest keyword wins.
var cannedAnswers = map[string]string{
	"entanglement": "Entanglement links qubits so their measurement outcomes correlate. The Bell State template is the smallest example: run it and the counts concentrate on 00 and 11.",
	"entangle":     "Use a controlled gate (cx, cz) between qubits to entangle them. The Bell State and GHZ templates show the standard constructions.",
	"bell":         "The Bell State template prepares (|00> + |11>)/sqrt(2) with one Hadamard and one CNOT. Expect roughly half the shots on 00 and half on 11.",
	"qasm":         "Circuits are described in OpenQASM 2.0. Paste your source into the circuit analyzer to get gate counts, depth and a per-provider runtime estimate.",
	"depth":        "Circuit depth here is a heuristic: total gates divided by qubit count, rounded up. Deeper circuits cost more and lose fidelity on real devices.",
	"shots":        "Shots are repeated executions of your circuit. The default is 1024, the maximum 8192. More shots sharpen the measured distribution and raise the cost.",
	"fidelity":     "Fidelity estimates how close the device's output is to the ideal distribution. Provider baselines are listed in the catalog; per-run fidelity is attached to completed jobs.",
	"provider":     "Providers are listed under /providers with qubit counts, costs and queue depth. Device health per provider is under /providers/{name}/health.",
	"queue":        "Each provider reports a pending-jobs figure and an average queue time on its health endpoint. The local simulator has no queue.",
	"gas":          "Gas estimates for logging a job on chain are under /network/gas: slow, standard and fast tiers plus the cost of the job-log transaction itself.",
	"transaction":  "Transaction logs per address are under /transactions/{address}. Addresses are 0x followed by 40 hex characters.",
	"wallet":       "Connect a wallet from the dashboard header. The backend only reads transaction logs; it never holds keys.",
	"cancel":       "Cancel a queued or running job with DELETE /jobs/{id}. Jobs that already finished cannot be cancelled.",
	"template":     "Built-in circuit templates (Bell, GHZ, Grover, QFT, teleportation) are under /templates. POST your own QASM to save a new one.",
	"grover":       "Grover's algorithm amplifies a marked state. On the 2-qubit template most shots land on the marked state after a single iteration.",
	"teleport":     "The teleportation template moves a qubit state using an entangled pair plus two classical bits. It needs three qubits.",
	"error":        "Error reports are classified into validation, provider, network and internal categories with advice attached. See /reports.",
	"price":        "Cost per shot is a provider property; the analyzer multiplies it by your shot count, with a surcharge for deep circuits.",
	"cost":         "Cost per shot is a provider property; the analyzer multiplies it by your shot count, with a surcharge for deep circuits.",
}

// LLM is the optional passthrough for questions the table cannot answer.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assistant answers dashboard questions: canned table first, LLM
// passthrough second, fixed fallback last.
type Assistant struct {
	logger *logrus.Logger
	llm    LLM
}

func New(logger *logrus.Logger, llm LLM) *Assistant {
	return &Assistant{logger: logger, llm: llm}
}

// Answer resolves one question.
func (a *Assistant) Answer(ctx context.Context, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	if answer, ok := matchCanned(message); ok {
		return &Reply{Text: answer, Source: SourceCanned}, nil
	}

	if a.llm != nil {
		text, err := a.llm.Generate(ctx, message)
		if err != nil {
			a.logger.Warnf("LLM passthrough failed, using fallback: %v", err)
		} else {
			return &Reply{Text: text, Source: SourceLLM}, nil
		}
	}

	return &Reply{Text: fallbackAnswer, Source: SourceCanned}, nil
}

func matchCanned(message string) (string, bool) {
	lower := strings.ToLower(message)

	best := ""
	for keyword := range cannedAnswers {
		if strings.Contains(lower, keyword) && len(keyword) > len(best) {
			best = keyword
		}
	}
	if best == "" {
		return "", false
	}
	return cannedAnswers[best], true
}
