package dexscreener

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pairwatch/internal/config"
)

func newTestClient(fetchCap int) *Client {
	return NewClient(2*time.Second, fetchCap, ClientConfig{
		MaxRetries:     2,
		RetryDelayBase: time.Millisecond,
	})
}

func testChain(endpoints ...string) config.ChainConfig {
	return config.ChainConfig{
		Name:      "ethereum",
		Enabled:   true,
		Endpoints: endpoints,
	}
}

func pairJSON(pairAddr, tokenAddr string, createdAtMs int64) string {
	return fmt.Sprintf(`{
		"chainId": "ethereum",
		"dexId": "uniswap",
		"url": "https://dexscreener.com/ethereum/%s",
		"pairAddress": "%s",
		"baseToken": {"address": "%s", "name": "Test Token", "symbol": "TST"},
		"quoteToken": {"address": "0xweth", "name": "Wrapped Ether", "symbol": "WETH"},
		"priceUsd": "0.0123",
		"liquidity": {"usd": 25000, "base": 1, "quote": 2},
		"volume": {"h24": 12000},
		"priceChange": {"h24": 42.5},
		"pairCreatedAt": %d
	}`, pairAddr, pairAddr, tokenAddr, createdAtMs)
}

func pairsBody(pairs ...string) string {
	body := `{"schemaVersion":"1.0.0","pairs":[`
	for i, p := range pairs {
		if i > 0 {
			body += ","
		}
		body += p
	}
	return body + `]}`
}

func serveBody(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPairs_Normalization(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	srv := serveBody(t, pairsBody(pairJSON("0xpair1", "0xtoken1", createdAt.UnixMilli())))

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(srv.URL))
	if err != nil {
		t.Fatalf("FetchPairs: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	c := cands[0]
	if c.PairID != "ethereum:0xpair1" {
		t.Errorf("pair ID = %q", c.PairID)
	}
	if c.TokenAddress != "0xtoken1" || c.TokenSymbol != "TST" || c.QuoteSymbol != "WETH" {
		t.Errorf("token fields = %q %q %q", c.TokenAddress, c.TokenSymbol, c.QuoteSymbol)
	}
	if c.DexID != "uniswap" {
		t.Errorf("dex = %q", c.DexID)
	}
	if c.LiquidityUSD != 25000 || c.Volume24hUSD != 12000 {
		t.Errorf("liquidity/volume = %v/%v", c.LiquidityUSD, c.Volume24hUSD)
	}
	if c.PriceChange24hPct != 42.5 {
		t.Errorf("price change = %v", c.PriceChange24hPct)
	}
	if c.CreatedAt == nil || !c.CreatedAt.Equal(createdAt) {
		t.Errorf("created at = %v, want %v", c.CreatedAt, createdAt)
	}
}

func TestFetchPairs_UnknownCreationTime(t *testing.T) {
	srv := serveBody(t, pairsBody(pairJSON("0xpair1", "0xtoken1", 0)))

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(srv.URL))
	if err != nil {
		t.Fatalf("FetchPairs: %v", err)
	}
	if cands[0].CreatedAt != nil {
		t.Errorf("zero pairCreatedAt must map to nil CreatedAt, got %v", cands[0].CreatedAt)
	}
}

func TestFetchPairs_MalformedRecordSkipped(t *testing.T) {
	// Middle record has no base token address; the other two must survive.
	srv := serveBody(t, pairsBody(
		pairJSON("0xpair1", "0xtoken1", 0),
		pairJSON("0xpair2", "", 0),
		pairJSON("0xpair3", "0xtoken3", 0),
	))

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(srv.URL))
	if err != nil {
		t.Fatalf("FetchPairs: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2 (malformed one dropped)", len(cands))
	}
	if cands[0].PairID != "ethereum:0xpair1" || cands[1].PairID != "ethereum:0xpair3" {
		t.Errorf("unexpected survivors: %q, %q", cands[0].PairID, cands[1].PairID)
	}
}

func TestFetchPairs_FetchCap(t *testing.T) {
	var pairs []string
	for i := 0; i < 10; i++ {
		pairs = append(pairs, pairJSON(fmt.Sprintf("0xpair%d", i), fmt.Sprintf("0xtoken%d", i), 0))
	}
	srv := serveBody(t, pairsBody(pairs...))

	cands, err := newTestClient(4).FetchPairs(context.Background(), testChain(srv.URL))
	if err != nil {
		t.Fatalf("FetchPairs: %v", err)
	}
	if len(cands) != 4 {
		t.Errorf("got %d candidates, want fetch cap of 4", len(cands))
	}
}

func TestFetchPairs_MergesEndpointsFirstSeenWins(t *testing.T) {
	// Both endpoints report 0xshared; the first endpoint's copy must win.
	srv1 := serveBody(t, pairsBody(
		pairJSON("0xshared", "0xtokenA", 0),
		pairJSON("0xonly1", "0xtoken1", 0),
	))
	srv2 := serveBody(t, pairsBody(
		pairJSON("0xshared", "0xtokenB", 0),
		pairJSON("0xonly2", "0xtoken2", 0),
	))

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(srv1.URL, srv2.URL))
	if err != nil {
		t.Fatalf("FetchPairs: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("got %d candidates, want 3 after merge", len(cands))
	}
	for _, c := range cands {
		if c.PairID == "ethereum:0xshared" && c.TokenAddress != "0xtokenA" {
			t.Errorf("first-seen did not win: %q", c.TokenAddress)
		}
	}
}

func TestFetchPairs_PartialEndpointFailure(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(bad.Close)
	good := serveBody(t, pairsBody(pairJSON("0xpair1", "0xtoken1", 0)))

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(bad.URL, good.URL))
	if err != nil {
		t.Fatalf("one healthy endpoint should suffice: %v", err)
	}
	if len(cands) != 1 {
		t.Errorf("got %d candidates, want 1", len(cands))
	}
}

func TestFetchPairs_AllEndpointsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	if _, err := newTestClient(30).FetchPairs(context.Background(), testChain(bad.URL)); err == nil {
		t.Error("expected error when every endpoint fails")
	}
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, pairsBody(pairJSON("0xpair1", "0xtoken1", 0)))
	}))
	t.Cleanup(srv.Close)

	cands, err := newTestClient(30).FetchPairs(context.Background(), testChain(srv.URL))
	if err != nil {
		t.Fatalf("FetchPairs after retry: %v", err)
	}
	if len(cands) != 1 {
		t.Errorf("got %d candidates, want 1", len(cands))
	}
	if calls.Load() != 2 {
		t.Errorf("got %d calls, want 2 (one retry)", calls.Load())
	}
}
