package gateway

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brickmarket/native/catalog"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/native/settlement"
	"brickmarket/token"
)

type initMarketplaceRequest struct {
	Authority      string               `json:"authority"`
	TokenConfig    market.TokenConfig   `json:"tokenConfig"`
	Permissionless bool                 `json:"permissionless"`
	FeesConfig     market.FeesConfig    `json:"feesConfig"`
	RewardsConfig  market.RewardsConfig `json:"rewardsConfig"`
}

func (s *Server) handleInitMarketplace(w http.ResponseWriter, r *http.Request) {
	var req initMarketplaceRequest
	if !decode(w, r, &req) {
		return
	}
	authority, ok := parseAddress(w, req.Authority)
	if !ok {
		return
	}
	created, err := s.services.Market.InitMarketplace(authority, market.InitParams{
		TokenConfig:    req.TokenConfig,
		Permissionless: req.Permissionless,
		FeesConfig:     req.FeesConfig,
		RewardsConfig:  req.RewardsConfig,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetMarketplace(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	marketplace, found, err := s.services.Market.Marketplace(addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, market.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, marketplace)
}

type editMarketplaceRequest struct {
	Caller         string                `json:"caller"`
	TokenConfig    *market.TokenConfig   `json:"tokenConfig,omitempty"`
	Permissionless *bool                 `json:"permissionless,omitempty"`
	FeesConfig     *market.FeesConfig    `json:"feesConfig,omitempty"`
	RewardsConfig  *market.RewardsConfig `json:"rewardsConfig,omitempty"`
}

func (s *Server) handleEditMarketplace(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req editMarketplaceRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	updated, err := s.services.Market.EditMarketplace(caller, addr, market.EditParams{
		TokenConfig:    req.TokenConfig,
		Permissionless: req.Permissionless,
		FeesConfig:     req.FeesConfig,
		RewardsConfig:  req.RewardsConfig,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type initBountyRequest struct {
	Caller string `json:"caller"`
	Mint   string `json:"mint"`
}

func (s *Server) handleInitBounty(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req initBountyRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	mint, ok := parseAddress(w, req.Mint)
	if !ok {
		return
	}
	vault, err := s.services.Market.InitBounty(caller, addr, mint)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"vault": vault.Hex()})
}

type initProductRequest struct {
	Seller      string   `json:"seller"`
	Marketplace string   `json:"marketplace"`
	ID          string   `json:"id,omitempty"`
	PaymentMint string   `json:"paymentMint"`
	Price       *big.Int `json:"price"`
}

func (s *Server) handleInitProduct(w http.ResponseWriter, r *http.Request) {
	var req initProductRequest
	if !decode(w, r, &req) {
		return
	}
	seller, ok := parseAddress(w, req.Seller)
	if !ok {
		return
	}
	marketplace, ok := parseAddress(w, req.Marketplace)
	if !ok {
		return
	}
	paymentMint, ok := parseAddress(w, req.PaymentMint)
	if !ok {
		return
	}
	// A fresh listing identifier is minted when the caller does not
	// supply one.
	id := uuid.New()
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		id = parsed
	}
	created, err := s.services.Catalog.InitProduct(seller, marketplace, [16]byte(id), catalog.SellerConfig{
		PaymentMint: paymentMint,
		Price:       req.Price,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	product, found, err := s.services.Catalog.Product(addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, catalog.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type editProductRequest struct {
	Seller      string   `json:"seller"`
	PaymentMint string   `json:"paymentMint"`
	Price       *big.Int `json:"price"`
}

func (s *Server) handleEditProduct(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req editProductRequest
	if !decode(w, r, &req) {
		return
	}
	seller, ok := parseAddress(w, req.Seller)
	if !ok {
		return
	}
	paymentMint, ok := parseAddress(w, req.PaymentMint)
	if !ok {
		return
	}
	updated, err := s.services.Catalog.EditProduct(seller, addr, paymentMint, req.Price)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type registerBuyRequest struct {
	Buyer       string `json:"buyer"`
	Product     string `json:"product"`
	PaymentMint string `json:"paymentMint"`
	Units       uint64 `json:"units"`
}

func (s *Server) handleRegisterBuy(w http.ResponseWriter, r *http.Request) {
	var req registerBuyRequest
	if !decode(w, r, &req) {
		return
	}
	buyer, ok := parseAddress(w, req.Buyer)
	if !ok {
		return
	}
	product, ok := parseAddress(w, req.Product)
	if !ok {
		return
	}
	paymentMint, ok := parseAddress(w, req.PaymentMint)
	if !ok {
		return
	}
	receipt, err := s.services.Settlement.RegisterBuy(buyer, product, paymentMint, req.Units)
	if err != nil {
		s.metrics.ObserveSettlementError(settlementErrorReason(err))
		writeEngineError(w, err)
		return
	}
	s.metrics.ObserveSettlement(feePayerLabel(receipt))
	writeJSON(w, http.StatusOK, receipt)
}

// settlementErrorReason buckets a settlement failure into a fixed label
// set. Metric labels must stay low-cardinality, so raw error strings with
// embedded addresses never reach the counter.
func settlementErrorReason(err error) string {
	switch {
	case errors.Is(err, settlement.ErrInvalidUnits):
		return "invalid_units"
	case errors.Is(err, settlement.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, settlement.ErrMarketplaceNotFound):
		return "marketplace_not_found"
	case errors.Is(err, settlement.ErrMintMismatch):
		return "mint_mismatch"
	case errors.Is(err, settlement.ErrInsufficientFunds), errors.Is(err, token.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, settlement.ErrDeliveryUnavailable):
		return "delivery_unavailable"
	case errors.Is(err, token.ErrMintNotFound):
		return "mint_not_found"
	case errors.Is(err, token.ErrNonTransferable):
		return "mint_not_transferable"
	case errors.Is(err, rewards.ErrInsufficientBounty):
		return "bounty_exhausted"
	default:
		return "internal"
	}
}

func feePayerLabel(receipt *settlement.Receipt) string {
	if receipt == nil {
		return "unknown"
	}
	if receipt.BuyerCharge.Cmp(receipt.Gross) > 0 {
		return "buyer"
	}
	return "seller"
}
