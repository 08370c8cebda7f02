package chain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

const (
	networkName    = "quantumchain-testnet"
	genesisHeight  = 18_500_000
	blockSeconds   = 12
	baseGasGwei    = 22.0
	jobLogGasUnits = 84_000
)

// Stats serves the network and gas figures shown on the dashboard. Values
// are lightly randomized around constants; block height advances with the
// wall clock so it looks monotonic across requests.
type Stats struct {
	logger *logrus.Logger
	start  time.Time
	rng    *rand.Rand
	mu     sync.Mutex

	// extraBlocks is bumped by the scheduled advance-chain task so height
	// moves even when nobody is watching the clock math.
	extraBlocks int64
}

func NewStats(logger *logrus.Logger) *Stats {
	return &Stats{
		logger: logger,
		start:  time.Now(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Stats) height() int64 {
	elapsed := int64(time.Since(s.start).Seconds()) / blockSeconds
	return genesisHeight + elapsed + s.extraBlocks
}

// Advance bumps the simulated chain by one block. Registered as a scheduled
// task.
func (s *Stats) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.extraBlocks++
	s.logger.Debugf("Advanced chain to height %d", s.height())
	return nil
}

// Network returns a stats snapshot.
func (s *Stats) Network() *types.NetworkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &types.NetworkStats{
		BlockHeight:  s.height(),
		PeerCount:    40 + s.rng.Intn(25),
		TPS:          14 + s.rng.Float64()*6,
		AvgBlockTime: blockSeconds + s.rng.Float64()*0.8 - 0.4,
		PendingTxs:   120 + s.rng.Intn(300),
		NetworkName:  networkName,
		LastUpdated:  time.Now(),
	}
}

// Gas returns tiered gas prices and the canned cost of a job-log
// transaction at the standard tier.
func (s *Stats) Gas() *types.GasEstimate {
	s.mu.Lock()
	defer s.mu.Unlock()

	standard := baseGasGwei + s.rng.Float64()*8 - 4
	if standard < 1 {
		standard = 1
	}

	return &types.GasEstimate{
		SlowGwei:     standard * 0.8,
		StandardGwei: standard,
		FastGwei:     standard * 1.35,
		JobLogGas:    jobLogGasUnits,
		JobLogEth:    standard * 1e-9 * jobLogGasUnits,
		LastUpdated:  time.Now(),
	}
}
