package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tokenfeed/src/analysis"
	"tokenfeed/src/indexer"
	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
	"tokenfeed/src/utils"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Feed    interfaces.IFeedClient
	Indexer *indexer.TradeIndexer
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *outbound // Buffered queue, hub loop is the only reader
	register   chan *Client
	unregister chan *Client

	// Recent trades per base mint, replayed to clients on subscribe
	recentMu sync.RWMutex
	recent   map[string]*utils.TradeRing

	stop     chan struct{}
	stopOnce sync.Once

	startedAt time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, log *logger.Logger, feed interfaces.IFeedClient, idx *indexer.TradeIndexer) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:  cfg,
		Logger:  log,
		Feed:    feed,
		Indexer: idx,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel so a burst of live frames never blocks the
		// upstream feed callbacks
		broadcast:  make(chan *outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		recent:     make(map[string]*utils.TradeRing),
		stop:       make(chan struct{}),
		startedAt:  time.Now().UTC(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/status", s.getStatus)
	s.engine.POST("/api/feed/reconnect", s.postFeedReconnect)
	s.engine.GET("/api/pools/:pool/stats", s.getPoolStats)
	s.engine.GET("/api/pools/:pool/transactions", s.getPoolTransactions)
	s.engine.GET("/api/pools/:pool/klines", s.getPoolKlines)
	s.engine.GET("/api/users/:address/transactions", s.getUserTransactions)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.attachFeed()
	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop terminates the hub loop. The input channels stay open so late feed
// callbacks park on the buffered queue instead of observing a closed channel.
func (s *APIServer) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":         "ok",
		"connections":    len(s.clients),
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStatus(c *gin.Context) {
	c.JSON(200, gin.H{
		"feed_connected":   s.Feed.IsConnected(),
		"feed_initialized": s.Feed.IsInitialized(),
		"endpoint":         s.Config.Feed.Endpoint,
	})
}

// -----------------------------------------------------------------------------

// postFeedReconnect tears the upstream feed connection down and dials again,
// also reviving a feed that exhausted its retry budget.
func (s *APIServer) postFeedReconnect(c *gin.Context) {
	s.Feed.ForceReconnect()
	c.JSON(202, gin.H{"status": "reconnecting"})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPoolStats(c *gin.Context) {
	stats, err := s.Indexer.GetStats(c.Request.Context(), c.Param("pool"), parseFilter(c))
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, stats)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPoolTransactions(c *gin.Context) {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)

	recent, err := s.Indexer.GetRecent(c.Request.Context(), c.Param("pool"), parseFilter(c), page, pageSize)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, recent)
}

// -----------------------------------------------------------------------------

// getPoolKlines rebuilds OHLC candles from the classified ledger history of
// one pool, for charts that need more depth than the live KLINE stream.
func (s *APIServer) getPoolKlines(c *gin.Context) {
	interval := int64(parsePositiveInt(c.Query("interval_seconds"), 60))

	txs, err := s.Indexer.IndexByPool(c.Request.Context(), c.Param("pool"), parseFilter(c), s.Config.Ledger.SignatureLimit)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}

	baseMint := c.Query("mint")
	if baseMint == "" && len(txs) > 0 {
		baseMint = assetMint(&txs[0])
	}

	builder := &analysis.KlineBuilder{}
	c.JSON(200, gin.H{"items": builder.BuildKlines(txs, baseMint, interval)})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getUserTransactions(c *gin.Context) {
	limit := parsePositiveInt(c.Query("limit"), s.Config.Ledger.SignatureLimit)

	txs, err := s.Indexer.IndexByUser(c.Request.Context(), c.Param("address"), c.Query("pool"), parseFilter(c), limit)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"items": txs, "total": len(txs)})
}
