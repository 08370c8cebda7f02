package types

import "time"

// NetworkStats is a snapshot of the chain the dashboard logs jobs to.
type NetworkStats struct {
	BlockHeight  int64     `json:"block_height"`
	PeerCount    int       `json:"peer_count"`
	TPS          float64   `json:"tps"`
	AvgBlockTime float64   `json:"avg_block_time"`
	PendingTxs   int       `json:"pending_txs"`
	NetworkName  string    `json:"network_name"`
	LastUpdated  time.Time `json:"last_updated"`
}

// GasEstimate carries the tiered gas prices plus the cost of logging a job.
type GasEstimate struct {
	SlowGwei     float64   `json:"slow_gwei"`
	StandardGwei float64   `json:"standard_gwei"`
	FastGwei     float64   `json:"fast_gwei"`
	JobLogGas    int64     `json:"job_log_gas"`
	JobLogEth    float64   `json:"job_log_eth"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Transaction is one entry of an address transaction log.
type Transaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ValueWei    string    `json:"value_wei"`
	GasUsed     int64     `json:"gas_used"`
	BlockNumber int64     `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
}
