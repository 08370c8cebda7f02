package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/quantumchain-labs/quantumchain/pkg/types"
	"github.com/sirupsen/logrus"
)

const txCacheKey = "transactions:%s"

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ExplorerClient fetches address transaction logs from a block-explorer API.
// When no base URL is configured it fabricates deterministic transactions so
// the dashboard works offline.
type ExplorerClient struct {
	cache   *cache.Cache
	logger  *logrus.Logger
	client  *http.Client
	baseURL string
	apiKey  string
	backoff BackoffConfig
}

type explorerTx struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	GasUsed     string `json:"gasUsed"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	IsError     string `json:"isError"`
}

type explorerResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  []explorerTx `json:"result"`
}

func NewExplorerClient(logger *logrus.Logger, baseURL, apiKey string) *ExplorerClient {
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		},
	}

	return &ExplorerClient{
		cache:   cache.New(2*time.Minute, 10*time.Second),
		logger:  logger,
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		backoff: DefaultBackoff(),
	}
}

// ValidAddress reports whether s looks like a hex account address.
func ValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// Transactions returns the transaction log for an address, from cache when
// possible.
func (e *ExplorerClient) Transactions(ctx context.Context, address string) ([]types.Transaction, error) {
	if !ValidAddress(address) {
		return nil, fmt.Errorf("invalid address %q", address)
	}
	address = strings.ToLower(address)

	if cached, found := e.cache.Get(fmt.Sprintf(txCacheKey, address)); found {
		e.logger.Debugf("Found cached transactions for %s", address)
		return cached.([]types.Transaction), nil
	}

	var txs []types.Transaction
	var err error
	if e.baseURL == "" {
		txs = e.fabricateTransactions(address)
	} else {
		txs, err = e.fetchTransactions(ctx, address)
		if err != nil {
			return nil, err
		}
	}

	e.cache.Set(fmt.Sprintf(txCacheKey, address), txs, 2*time.Minute)
	return txs, nil
}

func (e *ExplorerClient) fetchTransactions(ctx context.Context, address string) ([]types.Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("sort", "desc")
	if e.apiKey != "" {
		params.Set("apikey", e.apiKey)
	}
	reqURL := fmt.Sprintf("%s/api?%s", e.baseURL, params.Encode())

	var result explorerResponse
	err := e.backoff.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := e.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch from explorer API: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("explorer API rate limited: %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("explorer API returned non-200 status code: %d", resp.StatusCode)
		}

		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		// Rate-limited explorers sometimes answer with an HTML error page
		if strings.HasPrefix(strings.TrimSpace(string(bodyBytes)), "<") {
			return fmt.Errorf("received HTML response instead of JSON")
		}

		if err := json.Unmarshal(bodyBytes, &result); err != nil {
			e.logger.WithFields(logrus.Fields{
				"address": address,
				"error":   err,
			}).Debug("Failed to parse explorer response")
			return fmt.Errorf("failed to parse explorer response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	txs := make([]types.Transaction, 0, len(result.Result))
	for _, raw := range result.Result {
		txs = append(txs, convertTx(raw))
	}

	e.logger.WithFields(logrus.Fields{
		"address":  address,
		"tx_count": len(txs),
	}).Debug("Retrieved transactions from explorer")

	return txs, nil
}

func convertTx(raw explorerTx) types.Transaction {
	tx := types.Transaction{
		Hash:     raw.Hash,
		From:     raw.From,
		To:       raw.To,
		ValueWei: raw.Value,
		Status:   "success",
	}
	if raw.IsError == "1" {
		tx.Status = "failed"
	}
	fmt.Sscanf(raw.GasUsed, "%d", &tx.GasUsed)
	fmt.Sscanf(raw.BlockNumber, "%d", &tx.BlockNumber)
	var unix int64
	fmt.Sscanf(raw.TimeStamp, "%d", &unix)
	tx.Timestamp = time.Unix(unix, 0).UTC()
	return tx
}

// fabricateTransactions generates a stable fake log keyed by the address so
// repeated requests agree with each other.
func (e *ExplorerClient) fabricateTransactions(address string) []types.Transaction {
	h := fnv.New64a()
	h.Write([]byte(address))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	count := 3 + rng.Intn(8)
	now := time.Now().UTC().Truncate(time.Minute)

	txs := make([]types.Transaction, 0, count)
	for i := 0; i < count; i++ {
		hashBytes := make([]byte, 32)
		rng.Read(hashBytes)

		status := "success"
		if rng.Float64() < 0.1 {
			status = "failed"
		}

		txs = append(txs, types.Transaction{
			Hash:        fmt.Sprintf("0x%x", hashBytes),
			From:        address,
			To:          fmt.Sprintf("0x%040x", rng.Int63()),
			ValueWei:    fmt.Sprintf("%d", rng.Int63n(1e15)),
			GasUsed:     jobLogGasUnits + rng.Int63n(20_000),
			BlockNumber: genesisHeight - int64(i*40) - rng.Int63n(40),
			Timestamp:   now.Add(-time.Duration(i) * 8 * time.Minute),
			Status:      status,
		})
	}

	e.logger.WithFields(logrus.Fields{
		"address":  address,
		"tx_count": len(txs),
	}).Debug("No explorer configured, fabricated transaction log")

	return txs
}
