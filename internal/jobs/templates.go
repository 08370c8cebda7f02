package jobs

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumchain-labs/quantumchain/internal/qasm"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
)

const bellTemplate = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

const ghzTemplate = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
h q[0];
cx q[0],q[1];
cx q[1],q[2];
measure q[0] -> c[0];
measure q[1] -> c[1];
measure q[2] -> c[2];
`

const groverTemplate = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
creg c[2];
h q[0];
h q[1];
cz q[0],q[1];
h q[0];
h q[1];
x q[0];
x q[1];
cz q[0],q[1];
x q[0];
x q[1];
h q[0];
h q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

const qftTemplate = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
h q[0];
cu1(pi/2) q[1],q[0];
cu1(pi/4) q[2],q[0];
h q[1];
cu1(pi/2) q[2],q[1];
h q[2];
swap q[0],q[2];
measure q[0] -> c[0];
measure q[1] -> c[1];
measure q[2] -> c[2];
`

const teleportTemplate = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[3];
creg c[3];
h q[1];
cx q[1],q[2];
cx q[0],q[1];
h q[0];
measure q[0] -> c[0];
measure q[1] -> c[1];
cx q[1],q[2];
cz q[0],q[2];
measure q[2] -> c[2];
`

// TemplateStore keeps the built-in circuit templates plus user-created
// ones.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*types.Template
}

func NewTemplateStore() *TemplateStore {
	s := &TemplateStore{templates: make(map[string]*types.Template)}

	builtins := []struct {
		name, description, source string
	}{
		{"Bell State", "Two-qubit maximally entangled pair", bellTemplate},
		{"GHZ State", "Three-qubit entangled state", ghzTemplate},
		{"Grover 2-Qubit", "Grover search over a two-qubit register", groverTemplate},
		{"QFT 3-Qubit", "Quantum Fourier transform on three qubits", qftTemplate},
		{"Teleportation", "Single-qubit state teleportation", teleportTemplate},
	}

	for _, b := range builtins {
		m, err := qasm.Analyze(b.source)
		qubits := 0
		if err == nil {
			qubits = m.Qubits
		}
		tmpl := &types.Template{
			ID:          uuid.NewString(),
			Name:        b.name,
			Description: b.description,
			Source:      b.source,
			Builtin:     true,
			Qubits:      qubits,
			CreatedAt:   time.Now(),
		}
		s.templates[tmpl.ID] = tmpl
	}

	return s
}

// Create adds a user template after validating its source.
func (s *TemplateStore) Create(name, description, source string) (*types.Template, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	m, err := qasm.Analyze(source)
	if err != nil {
		return nil, fmt.Errorf("invalid QASM source: %w", err)
	}

	tmpl := &types.Template{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Source:      source,
		Qubits:      m.Qubits,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.templates[tmpl.ID] = tmpl
	s.mu.Unlock()

	return tmpl, nil
}

func (s *TemplateStore) Get(id string) (*types.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tmpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %q not found", id)
	}
	return tmpl, nil
}

// List returns templates, built-ins first, then by name.
func (s *TemplateStore) List() []*types.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]*types.Template, 0, len(s.templates))
	for _, tmpl := range s.templates {
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		if templates[i].Builtin != templates[j].Builtin {
			return templates[i].Builtin
		}
		return templates[i].Name < templates[j].Name
	})
	return templates
}
