package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"brickmarket/native/market"
)

type initRewardRequest struct {
	Owner       string `json:"owner"`
	Marketplace string `json:"marketplace"`
}

func (s *Server) handleInitReward(w http.ResponseWriter, r *http.Request) {
	var req initRewardRequest
	if !decode(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, req.Owner)
	if !ok {
		return
	}
	marketplace, ok := parseAddress(w, req.Marketplace)
	if !ok {
		return
	}
	created, err := s.services.Rewards.InitReward(owner, marketplace)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type initRewardVaultRequest struct {
	Owner string `json:"owner"`
	Mint  string `json:"mint"`
}

func (s *Server) handleInitRewardVault(w http.ResponseWriter, r *http.Request) {
	reward, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req initRewardVaultRequest
	if !decode(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, req.Owner)
	if !ok {
		return
	}
	mint, ok := parseAddress(w, req.Mint)
	if !ok {
		return
	}
	vault, err := s.services.Rewards.InitRewardVault(owner, reward, mint)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"vault": vault.Hex()})
}

type withdrawRequest struct {
	Owner       string `json:"owner"`
	Marketplace string `json:"marketplace"`
	Mint        string `json:"mint"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if !decode(w, r, &req) {
		return
	}
	owner, ok := parseAddress(w, req.Owner)
	if !ok {
		return
	}
	marketplace, ok := parseAddress(w, req.Marketplace)
	if !ok {
		return
	}
	mint, ok := parseAddress(w, req.Mint)
	if !ok {
		return
	}
	amount, err := s.services.Rewards.Withdraw(owner, marketplace, mint)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

type accessRequestBody struct {
	Wallet      string `json:"wallet"`
	Marketplace string `json:"marketplace"`
}

func (s *Server) handleRequestAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequestBody
	if !decode(w, r, &req) {
		return
	}
	wallet, ok := parseAddress(w, req.Wallet)
	if !ok {
		return
	}
	marketplace, ok := parseAddress(w, req.Marketplace)
	if !ok {
		return
	}
	created, err := s.services.Access.RequestAccess(wallet, marketplace)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type grantAccessRequest struct {
	Caller      string `json:"caller"`
	Marketplace string `json:"marketplace"`
	Wallet      string `json:"wallet"`
	Airdrop     bool   `json:"airdrop,omitempty"`
}

func (s *Server) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	var req grantAccessRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	marketplace, ok := parseAddress(w, req.Marketplace)
	if !ok {
		return
	}
	wallet, ok := parseAddress(w, req.Wallet)
	if !ok {
		return
	}
	var err error
	origin := "accept"
	if req.Airdrop {
		origin = "airdrop"
		err = s.services.Access.AirdropAccess(caller, marketplace, wallet)
	} else {
		err = s.services.Access.AcceptAccess(caller, marketplace, wallet)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.ObserveAccessGrant(origin)
	writeJSON(w, http.StatusOK, map[string]bool{"granted": true})
}

func (s *Server) handleHasCredential(w http.ResponseWriter, r *http.Request) {
	marketplaceAddr, ok := parseAddress(w, chi.URLParam(r, "marketplace"))
	if !ok {
		return
	}
	wallet, ok := parseAddress(w, chi.URLParam(r, "wallet"))
	if !ok {
		return
	}
	marketplace, found, err := s.services.Market.Marketplace(marketplaceAddr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, market.ErrNotFound)
		return
	}
	has, err := s.services.Access.HasCredential(marketplace, wallet)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasCredential": has})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	mint, ok := parseAddress(w, chi.URLParam(r, "mint"))
	if !ok {
		return
	}
	holder, ok := parseAddress(w, chi.URLParam(r, "holder"))
	if !ok {
		return
	}
	balance, err := s.services.Ledger.Balance(mint, holder)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}
