// Package honeypot queries a honeypot-checker oracle for token safety
// signals. The oracle is strictly best-effort: every failure degrades to an
// unknown verdict so the alerting pipeline never stalls on it.
package honeypot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pairwatch/internal/config"
	"pairwatch/internal/logger"
	"pairwatch/internal/models"
)

// Client queries the security oracle configured per chain.
type Client struct {
	httpClient *http.Client
}

// oracleResponse mirrors the honeypot-checker payload. Sections are
// pointers because the API omits whichever checks it could not run.
type oracleResponse struct {
	HoneypotResult *struct {
		IsHoneypot bool `json:"isHoneypot"`
	} `json:"honeypotResult"`
	SimulationResult *struct {
		BuyTax  float64 `json:"buyTax"`
		SellTax float64 `json:"sellTax"`
	} `json:"simulationResult"`
	ContractCode *struct {
		OpenSource bool `json:"openSource"`
	} `json:"contractCode"`
}

// NewClient creates a new oracle client with a bounded per-call timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Check returns the safety verdict for one token address. It never fails:
// a disabled oracle, timeout, non-2xx status, or malformed body all yield
// the zero verdict, which the scoring engine treats as absence of signal.
func (c *Client) Check(ctx context.Context, chain config.ChainConfig, tokenAddr string) models.SecurityVerdict {
	if chain.OracleURL == "" {
		return models.SecurityVerdict{}
	}

	url := fmt.Sprintf(chain.OracleURL, tokenAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Debug("Oracle request for %s on %s failed to build: %v", tokenAddr, chain.Name, err)
		return models.SecurityVerdict{}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Oracle unavailable for %s on %s: %v", tokenAddr, chain.Name, err)
		return models.SecurityVerdict{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("Oracle returned status %d for %s on %s", resp.StatusCode, tokenAddr, chain.Name)
		return models.SecurityVerdict{}
	}

	var payload oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Debug("Oracle body malformed for %s on %s: %v", tokenAddr, chain.Name, err)
		return models.SecurityVerdict{}
	}

	var v models.SecurityVerdict
	if payload.HoneypotResult != nil {
		if payload.HoneypotResult.IsHoneypot {
			v.Trap = models.FlagYes
		} else {
			v.Trap = models.FlagNo
		}
	}
	if payload.SimulationResult != nil {
		v.TaxKnown = true
		v.BuyTaxPct = payload.SimulationResult.BuyTax
		v.SellTaxPct = payload.SimulationResult.SellTax
	}
	if payload.ContractCode != nil {
		if payload.ContractCode.OpenSource {
			v.Verified = models.FlagYes
		} else {
			v.Verified = models.FlagNo
		}
	}
	return v
}
