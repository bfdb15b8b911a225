package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairwatch/internal/config"
	"pairwatch/internal/dexscreener"
	"pairwatch/internal/honeypot"
	"pairwatch/internal/ledger"
	"pairwatch/internal/logger"
	"pairwatch/internal/scanner"
	"pairwatch/internal/storage"
	"pairwatch/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	store, err := storage.New(cfg.Storage.DBPath, cfg.Storage.MaxAlerts)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	led, err := ledger.Open(store)
	if err != nil {
		logger.Fatal("Failed to load seen-pair ledger: %v", err)
	}
	logger.Info("Loaded %d previously seen pairs", led.Len())

	source := dexscreener.NewClient(
		cfg.Scanner.Timeout,
		cfg.Scanner.FetchCap,
		dexscreener.ClientConfig{
			MaxRetries:          cfg.Source.MaxRetries,
			RetryDelayBase:      cfg.Source.RetryDelayBase,
			MaxIdleConns:        cfg.Source.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.Source.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.Source.IdleConnTimeout,
		},
	)
	oracle := honeypot.NewClient(cfg.Scanner.Timeout)

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	chains := cfg.EnabledChains()
	chainNames := make([]string, 0, len(chains))
	for _, ch := range chains {
		chainNames = append(chainNames, ch.Name)
	}

	// notifier stays a nil interface when Telegram is off; a typed nil
	// *telegram.Client would defeat the scanner's nil check.
	var notifier scanner.Notifier
	if telegramClient != nil {
		notifier = telegramClient
	}
	scan := scanner.New(chains, source, oracle, notifier, store, led)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
		if err := telegramClient.SendStartup(chainNames); err != nil {
			logger.Warn("Startup self-test message failed: %v", err)
		}
	}

	logger.Info("Starting pair watcher (chains: %v, delay: %v-%v, fetch_cap: %d)",
		chainNames, cfg.Scanner.MinDelay, cfg.Scanner.MaxDelay, cfg.Scanner.FetchCap)

	consecutiveFailures := 0
	flushFailures := 0

	handleCycleResult := func(err error) {
		if err != nil {
			consecutiveFailures++
			logger.Error("Scan cycle failed: %v", err)
			if consecutiveFailures == 1 && telegramClient != nil {
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification to Telegram: %v", sendErr)
				}
			}
			if consecutiveFailures >= cfg.Scanner.MaxConsecutiveFailures {
				logger.Fatal("Aborting after %d consecutive scan failures", consecutiveFailures)
			}
		} else {
			if consecutiveFailures > 0 && telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification to Telegram: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}

		if err := led.Flush(); err != nil {
			flushFailures++
			logger.Error("Failed to flush seen-pair ledger: %v", err)
			if flushFailures >= cfg.Scanner.MaxFlushFailures {
				logger.Fatal("Aborting after %d consecutive ledger flush failures", flushFailures)
			}
		} else {
			flushFailures = 0
		}
	}

	runCycle := func() {
		startTime := time.Now()
		logger.Debug("Starting scan cycle")
		stats, err := scan.Scan(ctx)
		handleCycleResult(err)
		logger.Info("Scan cycle completed in %v: chains=%d/%d fetched=%d seen=%d scored=%d alerted=%d",
			time.Since(startTime), stats.ChainsScanned, stats.ChainsScanned+stats.ChainsFailed,
			stats.Fetched, stats.AlreadySeen, stats.Scored, stats.Alerted)
	}

	runCycle()

	// The delay between cycles is re-randomized every time so polling does
	// not land on a fixed upstream rhythm.
	timer := time.NewTimer(jitteredDelay(cfg.Scanner))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := led.Flush(); err != nil {
				logger.Error("Final ledger flush failed: %v", err)
			}
			logger.Info("Service stopped")
			return

		case <-timer.C:
			runCycle()
			timer.Reset(jitteredDelay(cfg.Scanner))
		}
	}
}

func jitteredDelay(sc config.ScannerConfig) time.Duration {
	if sc.MaxDelay <= sc.MinDelay {
		return sc.MinDelay
	}
	return sc.MinDelay + time.Duration(rand.Int63n(int64(sc.MaxDelay-sc.MinDelay)))
}
