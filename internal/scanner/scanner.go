// Package scanner runs the scan cycle: fetch candidates for every enabled
// chain, filter and score them, and hand alert-worthy ones to the notifier.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pairwatch/internal/alert"
	"pairwatch/internal/config"
	"pairwatch/internal/ledger"
	"pairwatch/internal/logger"
	"pairwatch/internal/models"
	"pairwatch/internal/scoring"
)

// Source fetches newly listed pair candidates for one chain.
type Source interface {
	FetchPairs(ctx context.Context, chain config.ChainConfig) ([]models.Candidate, error)
}

// Oracle checks a token for honeypot behavior. It degrades rather than
// fails: an unreachable oracle yields a zero verdict.
type Oracle interface {
	Check(ctx context.Context, chain config.ChainConfig, tokenAddr string) models.SecurityVerdict
}

// Notifier delivers alerts to the operator.
type Notifier interface {
	Send(a models.Alert) error
}

// AlertStore records delivered alerts for later inspection.
type AlertStore interface {
	AddAlert(a *models.Alert) error
}

// CycleStats summarizes one scan cycle.
type CycleStats struct {
	ChainsScanned int
	ChainsFailed  int
	Fetched       int
	AlreadySeen   int
	OutOfWindow   int
	BelowFloors   int
	Scored        int
	Alerted       int
}

// Scanner drives the pipeline for all enabled chains.
// Notifier may be nil when alert delivery is disabled; alert-worthy pairs
// are then recorded and marked seen without being sent anywhere.
type Scanner struct {
	chains   []config.ChainConfig
	source   Source
	oracle   Oracle
	notifier Notifier
	alerts   AlertStore
	ledger   *ledger.Ledger
}

func New(chains []config.ChainConfig, source Source, oracle Oracle, notifier Notifier, alerts AlertStore, led *ledger.Ledger) *Scanner {
	return &Scanner{
		chains:   chains,
		source:   source,
		oracle:   oracle,
		notifier: notifier,
		alerts:   alerts,
		ledger:   led,
	}
}

type chainResult struct {
	stats CycleStats
	err   error
}

// Scan runs one cycle across all chains in parallel. It returns an error
// only when every chain failed; partial failures are logged and reflected
// in the stats.
func (s *Scanner) Scan(ctx context.Context) (CycleStats, error) {
	results := make(chan chainResult, len(s.chains))

	var wg sync.WaitGroup
	for _, chain := range s.chains {
		wg.Add(1)
		go func(chain config.ChainConfig) {
			defer wg.Done()
			stats, err := s.scanChain(ctx, chain)
			results <- chainResult{stats: stats, err: err}
		}(chain)
	}
	wg.Wait()
	close(results)

	var total CycleStats
	var firstErr error
	for r := range results {
		total.Fetched += r.stats.Fetched
		total.AlreadySeen += r.stats.AlreadySeen
		total.OutOfWindow += r.stats.OutOfWindow
		total.BelowFloors += r.stats.BelowFloors
		total.Scored += r.stats.Scored
		total.Alerted += r.stats.Alerted
		if r.err != nil {
			total.ChainsFailed++
			if firstErr == nil {
				firstErr = r.err
			}
		} else {
			total.ChainsScanned++
		}
	}

	if total.ChainsScanned == 0 && total.ChainsFailed > 0 {
		return total, fmt.Errorf("all %d chains failed: %w", total.ChainsFailed, firstErr)
	}
	return total, nil
}

func (s *Scanner) scanChain(ctx context.Context, chain config.ChainConfig) (CycleStats, error) {
	var stats CycleStats

	candidates, err := s.source.FetchPairs(ctx, chain)
	if err != nil {
		logger.Error("Chain %s: fetch failed: %v", chain.Name, err)
		return stats, fmt.Errorf("chain %s: %w", chain.Name, err)
	}
	stats.Fetched = len(candidates)

	params := chain.ChainParams()
	now := time.Now()

	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			logger.Debug("Chain %s: dropping candidate: %v", chain.Name, err)
			continue
		}

		if s.ledger.Contains(c.PairID) {
			stats.AlreadySeen++
			continue
		}

		// Out-of-window pairs are not marked seen. Too-young ones will
		// re-enter the window; too-old ones age out of the feed anyway.
		if !scoring.FreshEnough(c, params, now) {
			stats.OutOfWindow++
			continue
		}

		// Floors are a pre-filter, not a verdict. A pair below them may
		// accrue liquidity and qualify on a later cycle, so it stays
		// unmarked.
		if c.LiquidityUSD < chain.MinLiquidityUSD || c.Volume24hUSD < chain.MinVolumeUSD {
			stats.BelowFloors++
			continue
		}

		verdict := s.oracle.Check(ctx, chain, c.TokenAddress)
		breakdown := scoring.Score(c, verdict, params, now)
		stats.Scored++

		if !breakdown.AlertWorthy() {
			logger.Debug("Chain %s: %s scored %.1f below %.1f", chain.Name, c.PairID, breakdown.Total, breakdown.Threshold)
			s.ledger.Add(c.PairID, chain.Name)
			continue
		}

		a := alert.Format(c, breakdown, chain)
		a.ID = uuid.New().String()
		a.DetectedAt = time.Now()

		if s.notifier != nil {
			if err := s.notifier.Send(a); err != nil {
				// Not marked seen: the pair is re-evaluated and re-sent
				// next cycle. At-least-once beats a silently lost alert.
				logger.Error("Chain %s: failed to deliver alert for %s: %v", chain.Name, c.PairID, err)
				continue
			}
			a.Delivered = true
		}

		s.ledger.Add(c.PairID, chain.Name)
		stats.Alerted++

		if s.alerts != nil {
			if err := s.alerts.AddAlert(&a); err != nil {
				logger.Warn("Chain %s: failed to record alert %s: %v", chain.Name, a.ID, err)
			}
		}

		logger.Info("Chain %s: alerted %s (%s) score %.1f/%.1f liquidity %s",
			chain.Name, c.TokenSymbol, c.PairID, breakdown.Total, breakdown.Threshold, alert.USD(c.LiquidityUSD))
	}

	logger.Debug("Chain %s: fetched=%d seen=%d out_of_window=%d below_floors=%d scored=%d alerted=%d",
		chain.Name, stats.Fetched, stats.AlreadySeen, stats.OutOfWindow, stats.BelowFloors, stats.Scored, stats.Alerted)

	return stats, nil
}
