package provider

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/quantumchain-labs/quantumchain/pkg/utils"
	"github.com/sirupsen/logrus"
)

const healthCacheKey = "device_health:%s"

// Catalog holds the provider table and serves cached device-health
// snapshots. Health numbers are generated around each provider's baselines;
// the cache keeps them stable between refresh cycles.
type Catalog struct {
	cache     *cache.Cache
	logger    *logrus.Logger
	providers map[string]types.Provider
	mu        sync.RWMutex
	rng       *rand.Rand
	rngMu     sync.Mutex
}

// Defaults is the built-in provider table, used when no providers.yaml is
// present.
func Defaults() []types.Provider {
	return []types.Provider{
		{Name: "ionq-aria", DisplayName: "IonQ Aria", Qubits: 25, Fidelity: 0.9914, QueueDepth: 12, CostPerShot: 0.0003},
		{Name: "ibm-heron", DisplayName: "IBM Heron", Qubits: 133, Fidelity: 0.9987, QueueDepth: 47, CostPerShot: 0.00016},
		{Name: "rigetti-ankaa", DisplayName: "Rigetti Ankaa", Qubits: 84, Fidelity: 0.9812, QueueDepth: 8, CostPerShot: 0.00011},
		{Name: "quantinuum-h2", DisplayName: "Quantinuum H2", Qubits: 56, Fidelity: 0.9979, QueueDepth: 31, CostPerShot: 0.00058},
		{Name: "qsim-local", DisplayName: "Local Simulator", Qubits: 32, Fidelity: 1.0, QueueDepth: 0, CostPerShot: 0},
	}
}

func NewCatalog(logger *logrus.Logger, providers []types.Provider) *Catalog {
	if len(providers) == 0 {
		providers = Defaults()
	}

	table := make(map[string]types.Provider, len(providers))
	for _, p := range providers {
		table[p.Name] = p
	}

	return &Catalog{
		cache:     cache.New(5*time.Minute, 10*time.Second),
		logger:    logger,
		providers: table,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// List returns all providers sorted by name.
func (c *Catalog) List() []types.Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()

	providers := make([]types.Provider, 0, len(c.providers))
	for _, p := range c.providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Name < providers[j].Name
	})
	return providers
}

func (c *Catalog) Get(name string) (types.Provider, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.providers[name]
	if !ok {
		return types.Provider{}, fmt.Errorf("provider %q not found", name)
	}
	return p, nil
}

// Health returns the cached health snapshot for a provider, generating a
// fresh one on cache miss.
func (c *Catalog) Health(name string) (*types.DeviceHealth, error) {
	if cached, found := c.cache.Get(fmt.Sprintf(healthCacheKey, name)); found {
		c.logger.Debugf("Found cached health for %s", name)
		return cached.(*types.DeviceHealth), nil
	}

	p, err := c.Get(name)
	if err != nil {
		return nil, err
	}

	health := c.generateHealth(p)
	c.cache.Set(fmt.Sprintf(healthCacheKey, name), health, 5*time.Minute)
	return health, nil
}

// RefreshAll regenerates health snapshots for every provider. Called by the
// scheduled refresh task.
func (c *Catalog) RefreshAll() error {
	for _, p := range c.List() {
		health := c.generateHealth(p)
		c.cache.Set(fmt.Sprintf(healthCacheKey, p.Name), health, 5*time.Minute)

		c.logger.WithFields(logrus.Fields{
			"provider": p.Name,
			"status":   health.Status,
			"pending":  health.PendingJobs,
		}).Debug("Refreshed device health")
	}
	return nil
}

func (c *Catalog) generateHealth(p types.Provider) *types.DeviceHealth {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	// Jitter around catalog baselines; the simulator is always clean
	singleErr := (1 - p.Fidelity) * (0.8 + c.rng.Float64()*0.4)
	twoErr := singleErr * (4 + c.rng.Float64()*4)
	readoutErr := singleErr * (2 + c.rng.Float64()*2)

	pending := p.QueueDepth
	if pending > 0 {
		pending += c.rng.Intn(p.QueueDepth) - p.QueueDepth/2
		if pending < 0 {
			pending = 0
		}
	}

	status := "online"
	uptime := 99.0 + c.rng.Float64()
	if c.rng.Float64() < 0.05 {
		status = "calibrating"
		uptime -= 2
	}

	calibrationAge := time.Duration(c.rng.Intn(12)+1) * time.Hour

	return &types.DeviceHealth{
		Provider:        p.Name,
		Status:          status,
		UptimePercent:   uptime,
		SingleQubitErr:  singleErr,
		TwoQubitErr:     twoErr,
		ReadoutErr:      readoutErr,
		PendingJobs:     pending,
		CalibrationAge:  utils.FormatDuration(calibrationAge),
		AvgQueueMinutes: pending * 2,
		LastUpdated:     time.Now(),
	}
}

// EstimateCost prices a run: shots times the provider per-shot rate, with a
// surcharge once the circuit is deeper than the device likes.
func (c *Catalog) EstimateCost(name string, shots, depth int) (float64, error) {
	p, err := c.Get(name)
	if err != nil {
		return 0, err
	}

	cost := float64(shots) * p.CostPerShot
	if depth > 50 {
		cost *= 1.5
	}
	return cost, nil
}
