package reports

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

const defaultCapacity = 200

// classifications maps known error codes to category, severity and advice.
// Codes arrive as free-form strings from the dashboard; numeric HTTP-ish
// codes and symbolic ones are both in the table.
var classifications = map[string]types.Classification{
	"400":                 {Category: "validation", Severity: "info", Advice: "Check the submitted fields; one of them failed validation."},
	"404":                 {Category: "validation", Severity: "info", Advice: "The referenced job or resource does not exist; it may have been pruned."},
	"429":                 {Category: "network", Severity: "warning", Advice: "The explorer API is rate limiting; retries back off automatically, wait a moment."},
	"500":                 {Category: "internal", Severity: "critical", Advice: "Unexpected server error; check service logs for the stack trace."},
	"502":                 {Category: "network", Severity: "warning", Advice: "An upstream service answered badly; the call will be retried."},
	"PROVIDER_OFFLINE":    {Category: "provider", Severity: "critical", Advice: "The selected device is offline; resubmit to another provider or the local simulator."},
	"PROVIDER_QUEUE_FULL": {Category: "provider", Severity: "warning", Advice: "The provider queue is saturated; lower the priority or pick a device with a shorter queue."},
	"CALIBRATION":         {Category: "provider", Severity: "warning", Advice: "The device is recalibrating; health metrics refresh on a schedule, try again shortly."},
	"QASM_PARSE":          {Category: "validation", Severity: "info", Advice: "The circuit source failed analysis; ensure it declares a qreg and uses OpenQASM 2.0 gates."},
	"DECOHERENCE":         {Category: "provider", Severity: "warning", Advice: "The run exceeded the device coherence window; reduce circuit depth or shots."},
	"WALLET_REJECTED":     {Category: "validation", Severity: "info", Advice: "The wallet rejected the transaction; the job itself is unaffected."},
	"RPC_TIMEOUT":         {Category: "network", Severity: "warning", Advice: "The chain RPC timed out; gas and stats endpoints serve cached values meanwhile."},
}

var defaultClassification = types.Classification{
	Category: "internal",
	Severity: "warning",
	Advice:   "Unrecognized error code; attach the job id and report context when filing an issue.",
}

// Classify looks up the advice for an error code.
func Classify(code string) types.Classification {
	if c, ok := classifications[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return c
	}
	return defaultClassification
}

// Store keeps the newest reports in a bounded in-memory ring.
type Store struct {
	logger   *logrus.Logger
	mu       sync.RWMutex
	reports  []*types.ErrorReport
	capacity int
}

func NewStore(logger *logrus.Logger) *Store {
	return &Store{
		logger:   logger,
		reports:  make([]*types.ErrorReport, 0, defaultCapacity),
		capacity: defaultCapacity,
	}
}

// Add classifies and stores a report, returning it with the classification
// attached.
func (s *Store) Add(code, message string, context map[string]any) (*types.ErrorReport, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	c := Classify(code)
	report := &types.ErrorReport{
		ID:         uuid.NewString(),
		Code:       code,
		Message:    message,
		Context:    context,
		Category:   c.Category,
		Severity:   c.Severity,
		Advice:     c.Advice,
		ReceivedAt: time.Now(),
	}

	s.mu.Lock()
	s.reports = append([]*types.ErrorReport{report}, s.reports...)
	if len(s.reports) > s.capacity {
		s.reports = s.reports[:s.capacity]
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"code":      code,
		"category":  c.Category,
		"severity":  c.Severity,
	}).Info("Error report received")

	return report, nil
}

// List returns reports newest-first, up to limit (0 means all).
func (s *Store) List(limit int) []*types.ErrorReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.reports)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]*types.ErrorReport, n)
	copy(out, s.reports[:n])
	return out
}
