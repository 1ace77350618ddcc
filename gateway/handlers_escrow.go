package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"brickmarket/crypto"
)

type escrowPayRequest struct {
	Buyer   string `json:"buyer"`
	Product string `json:"product"`
	Units   uint64 `json:"units"`
	TTL     int64  `json:"ttl"`
}

func (s *Server) handleEscrowPay(w http.ResponseWriter, r *http.Request) {
	var req escrowPayRequest
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
	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.cfg.EscrowDefaultTTL
	}
	created, err := s.services.Escrow.Pay(buyer, product, req.Units, ttl)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.ObserveEscrow("paid")
	writeJSON(w, http.StatusCreated, created)
}

type escrowActionRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) escrowAction(w http.ResponseWriter, r *http.Request, outcome string, action func(caller, escrow crypto.Address) error) {
	addr, ok := parseAddress(w, chi.URLParam(r, "address"))
	if !ok {
		return
	}
	var req escrowActionRequest
	if !decode(w, r, &req) {
		return
	}
	caller, ok := parseAddress(w, req.Caller)
	if !ok {
		return
	}
	if err := action(caller, addr); err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.ObserveEscrow(outcome)
	writeJSON(w, http.StatusOK, map[string]string{"outcome": outcome})
}

func (s *Server) handleEscrowAccept(w http.ResponseWriter, r *http.Request) {
	s.escrowAction(w, r, "accepted", s.services.Escrow.Accept)
}

func (s *Server) handleEscrowDeny(w http.ResponseWriter, r *http.Request) {
	s.escrowAction(w, r, "denied", s.services.Escrow.Deny)
}

func (s *Server) handleEscrowRecover(w http.ResponseWriter, r *http.Request) {
	s.escrowAction(w, r, "recovered", s.services.Escrow.RecoverFunds)
}

type directPayRequest struct {
	Buyer   string `json:"buyer"`
	Product string `json:"product"`
	Units   uint64 `json:"units"`
}

func (s *Server) handleDirectPay(w http.ResponseWriter, r *http.Request) {
	var req directPayRequest
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
	amount, err := s.services.Escrow.DirectPay(buyer, product, req.Units)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}
