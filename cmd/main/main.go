package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tokenfeed/src/config"
	"tokenfeed/src/feed"
	"tokenfeed/src/indexer"
	"tokenfeed/src/interfaces"
	"tokenfeed/src/ledger"
	"tokenfeed/src/logger"
	"tokenfeed/src/relay"
	"tokenfeed/src/server"
	"tokenfeed/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Optional .env for endpoint/credential overrides
	_ = godotenv.Load()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Endpoints may carry API keys, so the environment wins over the file
	if v := os.Getenv("FEED_ENDPOINT"); v != "" {
		config.Feed.Endpoint = v
	}
	if v := os.Getenv("LEDGER_RPC_ENDPOINT"); v != "" {
		config.Ledger.RPCEndpoint = v
	}

	// Setup logger
	appLogger := logger.NewLogger(config.MConfig, config.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Optional storage
	var db interfaces.IDatabase

	if config.Storage.Enabled {
		switch config.Storage.DBType {
		case "postgres":
			db, err = storage.NewPostgresDB(config.MConfig, appLogger)
		default:
			// Default to SQLite
			db, err = storage.NewSQLiteDB(config.MConfig, appLogger)
		}

		if err != nil {
			appLogger.Critical("Failed to init db: %v", err)
			os.Exit(1)
		}
		if err := db.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate db: %v", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	// 2. One process-wide feed client shared by every consumer
	dialer := feed.NewWebsocketDialer(time.Duration(config.Feed.HandshakeTimeoutSeconds) * time.Second)
	feedClient := feed.NewFeedClient(config.MConfig, dialer, appLogger)
	feedClient.OnError(func(err error) {
		appLogger.Warning("Feed error: %v", err)
	})
	feedClient.Connect()
	defer feedClient.Close()

	// 3. Historical indexing pipeline
	rpcClient := ledger.NewRPCClient(config.Ledger.RPCEndpoint)
	fetcher := ledger.NewFetcher(config.MConfig, rpcClient, appLogger)
	classifier := ledger.NewClassifier()
	tradeIndexer := indexer.NewTradeIndexer(config.MConfig, fetcher, classifier, db, appLogger)

	// 4. Optional live-trade consumers
	if db != nil {
		archiver := storage.NewTradeArchiver(config.MConfig, db, appLogger)
		archiver.Attach(ctx, feedClient)
	}

	if config.Relay.Enabled {
		kafkaRelay := relay.NewKafkaRelay(config.MConfig, appLogger)
		kafkaRelay.Attach(feedClient)
		defer kafkaRelay.Close()
	}

	// 5. HTTP/WebSocket surface
	srv := server.NewAPIServer(config.MConfig, appLogger, feedClient, tradeIndexer)
	defer srv.Stop()
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	appLogger.Info("Started (feed=%s rpc=%s)", config.Feed.Endpoint, config.Ledger.RPCEndpoint)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
}
