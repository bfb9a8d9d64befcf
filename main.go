package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/signalcraft/engine/backtest"
	"github.com/signalcraft/engine/delivery"
	"github.com/signalcraft/engine/feed"
	"github.com/signalcraft/engine/monitor"
	"github.com/signalcraft/engine/notification"
	"github.com/signalcraft/engine/persist"
	"github.com/signalcraft/engine/strategy"
)

const (
	defaultPort      = "8080"
	defaultTimeframe = "1Min"
	defaultInterval  = 30 * time.Second
	maxNotifications = 100 // Maximum notifications to store

	signalsPerMinute = 10
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// If .env file doesn't exist, log a warning but continue
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	mode := flag.String("mode", "backtest", "Run mode: backtest or monitor")
	strategyFile := flag.String("strategy", "", "Path to strategy definition JSON")
	candleFile := flag.String("candles", "", "Path to candle CSV (backtest, or monitor replay)")
	symbol := flag.String("symbol", "BTCUSD", "Symbol to evaluate")
	timeframe := flag.String("timeframe", defaultTimeframe, "Candle timeframe (1Min, 5Min, 15Min, 1H, 1D)")
	userID := flag.String("user", "local", "User ID signals are addressed to")
	port := flag.String("port", defaultPort, "Port to listen on (monitor mode)")
	interval := flag.Duration("interval", defaultInterval, "Evaluation interval (monitor mode)")

	balance := flag.Float64("balance", 10000, "Initial balance (backtest mode)")
	leverage := flag.Float64("leverage", 1, "Leverage multiplier (backtest mode)")
	sizePct := flag.Float64("size", 1, "Position size as fraction of balance (backtest mode)")
	takerFee := flag.Float64("taker-fee", 0, "Taker fee rate, e.g. 0.0004 (backtest mode)")
	slippage := flag.Float64("slippage", 0, "Slippage rate, e.g. 0.0001 (backtest mode)")
	flag.Parse()

	if *strategyFile == "" {
		log.Fatal("A strategy definition is required: -strategy path/to/strategy.json")
	}
	cfg, err := loadStrategy(*strategyFile)
	if err != nil {
		log.Fatalf("Error loading strategy: %v", err)
	}
	log.Printf("Loaded %s strategy from %s (warmup %d candles)", cfg.Family(), *strategyFile, cfg.Warmup())

	switch *mode {
	case "backtest":
		params := backtest.Params{
			InitialBalance:  *balance,
			Leverage:        *leverage,
			PositionSizePct: *sizePct,
			TakerFeeRate:    *takerFee,
			SlippageRate:    *slippage,
		}
		if err := runBacktest(cfg, *candleFile, *symbol, *timeframe, params); err != nil {
			log.Fatalf("Backtest failed: %v", err)
		}
	case "monitor":
		if err := runMonitor(cfg, *candleFile, *symbol, *timeframe, *userID, *port, *interval); err != nil {
			log.Fatalf("Monitor failed: %v", err)
		}
	default:
		log.Fatalf("Unknown mode %q: expected backtest or monitor", *mode)
	}
}

// loadStrategy reads and parses a strategy definition file
func loadStrategy(path string) (strategy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy file: %w", err)
	}
	return strategy.ParseConfig(data)
}

// runBacktest replays the candle file through the simulator and prints
// the report. When ClickHouse is configured the report is persisted too.
func runBacktest(cfg strategy.Config, candleFile, symbol, timeframe string, params backtest.Params) error {
	if candleFile == "" {
		return fmt.Errorf("backtest mode needs a candle file: -candles path/to/candles.csv")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	candles, err := feed.NewCSVFeed(candleFile).Fetch(ctx, symbol, timeframe, 0)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d candles from %s", len(candles), candleFile)

	report, err := backtest.Run(ctx, cfg, candles, params)
	if err != nil {
		return err
	}
	if report.Incomplete {
		log.Println("Backtest interrupted, reporting partial results")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	log.Printf("Backtest complete: %d trades, final balance %.2f (%.2f%%), max drawdown %.2f%%",
		len(report.Trades), report.FinalBalance, report.TotalReturnPct, report.MaxDrawdownPct)

	if store, ok := clickHouseFromEnv(ctx); ok {
		strategyID := fmt.Sprintf("%s-%s", cfg.Family(), symbol)
		if err := store.InsertReport(ctx, strategyID, report); err != nil {
			log.Printf("Error persisting report: %v", err)
		} else {
			log.Printf("Report persisted as %s", strategyID)
		}
	}
	return nil
}

// runMonitor evaluates the strategy on a schedule and serves the
// notification endpoints until interrupted
func runMonitor(cfg strategy.Config, candleFile, symbol, timeframe, userID, port string, interval time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var candleFeed feed.Feed
	if candleFile != "" {
		candleFeed = feed.NewCSVFeed(candleFile)
		log.Printf("Using CSV candle feed from %s", candleFile)
	} else {
		apiKey := os.Getenv("ALPACA_API_KEY")
		apiSecret := os.Getenv("ALPACA_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			return fmt.Errorf("monitor mode needs ALPACA_API_KEY and ALPACA_API_SECRET, or -candles for a CSV feed")
		}
		candleFeed = feed.NewAlpacaFeed(apiKey, apiSecret)
		log.Println("Using Alpaca market data feed")
	}

	var store persist.Store
	if ch, ok := clickHouseFromEnv(ctx); ok {
		store = ch
		log.Println("Persisting signals to ClickHouse")
	} else {
		store = persist.NewMemoryStore()
		log.Println("Persisting signals in memory")
	}

	inbox := notification.NewInbox(maxNotifications)
	broadcaster := notification.NewBroadcaster()
	defer broadcaster.Close()
	channels := []notification.Channel{inbox, broadcaster}
	if webhook := os.Getenv("CHATBOT_WEBHOOK_URL"); webhook != "" {
		channels = append(channels, notification.NewChatBotPush(webhook))
		log.Println("Chat-bot push channel enabled")
	}

	dispatcher := delivery.NewDispatcher(
		delivery.NewRecorder(store),
		delivery.NewRateLimiter(signalsPerMinute, time.Minute),
		channels...,
	)

	mon := monitor.NewMonitor(candleFeed, dispatcher, store)
	strategyID := fmt.Sprintf("%s-%s", cfg.Family(), strings.ToLower(symbol))
	if err := mon.Subscribe(monitor.Subscription{
		UserID:     userID,
		StrategyID: strategyID,
		Symbol:     symbol,
		Timeframe:  timeframe,
		Config:     cfg,
	}); err != nil {
		return err
	}
	go mon.Start(ctx, interval)

	mux := http.NewServeMux()
	notification.NewHandler(inbox).RegisterRoutes(mux)
	mux.Handle("/ws", broadcaster)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":        "ok",
			"subscriptions": mon.SubscriptionCount(),
			"ws_clients":    broadcaster.ClientCount(),
		})
	})

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Monitoring %s %s for user %s, serving on port %s", symbol, timeframe, userID, port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("Shutdown complete")
	return nil
}

// clickHouseFromEnv builds a ClickHouse store when CLICKHOUSE_ADDR is set
func clickHouseFromEnv(ctx context.Context) (*persist.ClickHouseStore, bool) {
	addr := os.Getenv("CLICKHOUSE_ADDR")
	if addr == "" {
		return nil, false
	}
	store, err := persist.NewClickHouseStore(ctx, persist.ClickHouseConfig{
		Addr:     addr,
		Database: envOr("CLICKHOUSE_DB", "signals"),
		Username: envOr("CLICKHOUSE_USER", "default"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
	})
	if err != nil {
		log.Printf("Error connecting to ClickHouse at %s: %v", addr, err)
		return nil, false
	}
	return store, true
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
