package chain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddress = "0x1234567890abcdef1234567890abcdef12345678"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress(testAddress))
	assert.True(t, ValidAddress("0xABCDEF7890abcdef1234567890abcdef12345678"))
	assert.False(t, ValidAddress("1234567890abcdef1234567890abcdef12345678"))
	assert.False(t, ValidAddress("0x1234"))
	assert.False(t, ValidAddress("0xZZ34567890abcdef1234567890abcdef12345678"))
	assert.False(t, ValidAddress(""))
}

func TestTransactionsRejectsBadAddress(t *testing.T) {
	e := NewExplorerClient(testLogger(), "", "")

	_, err := e.Transactions(context.Background(), "not-an-address")
	assert.Error(t, err)
}

func TestFabricatedTransactionsDeterministic(t *testing.T) {
	e := NewExplorerClient(testLogger(), "", "")

	first, err := e.Transactions(context.Background(), testAddress)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Second client, same address: fabrication is keyed by address
	e2 := NewExplorerClient(testLogger(), "", "")
	second, err := e2.Transactions(context.Background(), testAddress)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Hash, second[i].Hash)
		assert.Equal(t, first[i].ValueWei, second[i].ValueWei)
	}
}

func TestTransactionsFromExplorerAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "txlist", r.URL.Query().Get("action"))
		assert.Equal(t, testAddress, r.URL.Query().Get("address"))

		fmt.Fprint(w, `{"status":"1","message":"OK","result":[
			{"hash":"0xaa","from":"0xfrom","to":"0xto","value":"1000","gasUsed":"84000","blockNumber":"18500000","timeStamp":"1700000000","isError":"0"},
			{"hash":"0xbb","from":"0xfrom","to":"0xto","value":"2000","gasUsed":"90000","blockNumber":"18500001","timeStamp":"1700000100","isError":"1"}
		]}`)
	}))
	defer srv.Close()

	e := NewExplorerClient(testLogger(), srv.URL, "test-key")

	txs, err := e.Transactions(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "0xaa", txs[0].Hash)
	assert.Equal(t, int64(84000), txs[0].GasUsed)
	assert.Equal(t, "success", txs[0].Status)
	assert.Equal(t, "failed", txs[1].Status)
	assert.Equal(t, int64(1700000000), txs[0].Timestamp.Unix())
}

func TestTransactionsCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"status":"1","message":"OK","result":[]}`)
	}))
	defer srv.Close()

	e := NewExplorerClient(testLogger(), srv.URL, "")

	_, err := e.Transactions(context.Background(), testAddress)
	require.NoError(t, err)
	_, err = e.Transactions(context.Background(), testAddress)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransactionsRetriesOnRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"status":"1","message":"OK","result":[]}`)
	}))
	defer srv.Close()

	e := NewExplorerClient(testLogger(), srv.URL, "")
	e.backoff = BackoffConfig{Attempts: 4, Initial: 1, Factor: 2, Cap: 10}

	_, err := e.Transactions(context.Background(), testAddress)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTransactionsRejectsHTMLBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>rate limited</body></html>")
	}))
	defer srv.Close()

	e := NewExplorerClient(testLogger(), srv.URL, "")
	e.backoff = BackoffConfig{Attempts: 2, Initial: 1, Factor: 2, Cap: 10}

	_, err := e.Transactions(context.Background(), testAddress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}
