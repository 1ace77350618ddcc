package gateway

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"brickmarket/gateway/middleware"
	"brickmarket/native/access"
	"brickmarket/native/catalog"
	"brickmarket/native/escrow"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/native/settlement"
	"brickmarket/observability/metrics"
	"brickmarket/token"
)

// Services bundles the protocol engines the gateway exposes.
type Services struct {
	Market     *market.Engine
	Catalog    *catalog.Engine
	Settlement *settlement.Engine
	Rewards    *rewards.Engine
	Access     *access.Engine
	Escrow     *escrow.Engine
	Ledger     *token.Ledger
}

// Config carries the gateway's node-level settings.
type Config struct {
	// LogRequests enables per-request access logging.
	LogRequests bool
	// EscrowDefaultTTL is the hold window, in seconds, used when an
	// escrow payment does not specify one.
	EscrowDefaultTTL int64
}

// Server is the HTTP surface of the marketplace node.
type Server struct {
	services Services
	cfg      Config
	logger   *slog.Logger
	obs      *middleware.Observability
	metrics  *metrics.MarketplaceMetrics

	// opMu serializes mutating operations. The engines validate every
	// precondition and then apply without holding locks, so two
	// interleaved operations could each pass checks the other
	// invalidates; running them one at a time keeps check-then-apply
	// sound under concurrent requests.
	opMu sync.Mutex
}

func NewServer(services Services, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		ServiceName: "brickmarket-gateway",
		LogRequests: cfg.LogRequests,
	}, logger)
	return &Server{
		services: services,
		cfg:      cfg,
		logger:   logger,
		obs:      obs,
		metrics:  metrics.Marketplace(),
	}
}

func (s *Server) serialized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		s.opMu.Lock()
		defer s.opMu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Router builds the HTTP handler tree for the node's operation set.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.obs.Middleware("api"))
	r.Use(s.serialized)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.obs.MetricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/marketplaces", s.handleInitMarketplace)
		r.Get("/marketplaces/{address}", s.handleGetMarketplace)
		r.Put("/marketplaces/{address}", s.handleEditMarketplace)
		r.Post("/marketplaces/{address}/bounties", s.handleInitBounty)

		r.Post("/products", s.handleInitProduct)
		r.Get("/products/{address}", s.handleGetProduct)
		r.Put("/products/{address}", s.handleEditProduct)

		r.Post("/settlements", s.handleRegisterBuy)
		r.Post("/payments/direct", s.handleDirectPay)

		r.Post("/rewards", s.handleInitReward)
		r.Post("/rewards/{address}/vaults", s.handleInitRewardVault)
		r.Post("/rewards/withdrawals", s.handleWithdraw)

		r.Post("/access/requests", s.handleRequestAccess)
		r.Post("/access/grants", s.handleGrantAccess)
		r.Get("/access/{marketplace}/{wallet}", s.handleHasCredential)

		r.Post("/escrows", s.handleEscrowPay)
		r.Post("/escrows/{address}/accept", s.handleEscrowAccept)
		r.Post("/escrows/{address}/deny", s.handleEscrowDeny)
		r.Post("/escrows/{address}/recover", s.handleEscrowRecover)

		r.Get("/balances/{mint}/{holder}", s.handleBalance)
	})

	return r
}
