package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"brickmarket/crypto"
	"brickmarket/native/access"
	"brickmarket/native/catalog"
	"brickmarket/native/escrow"
	"brickmarket/native/market"
	"brickmarket/native/rewards"
	"brickmarket/native/settlement"
	"brickmarket/token"
)

const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseAddress(w http.ResponseWriter, raw string) (crypto.Address, bool) {
	addr, err := crypto.AddressFromHex(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return crypto.Address{}, false
	}
	return addr, true
}

var notFoundErrors = []error{
	market.ErrNotFound,
	catalog.ErrMarketplaceNotFound,
	catalog.ErrNotFound,
	rewards.ErrMarketplaceNotFound,
	rewards.ErrNotFound,
	access.ErrMarketplaceNotFound,
	access.ErrRequestNotFound,
	escrow.ErrProductNotFound,
	escrow.ErrNotFound,
	settlement.ErrMarketplaceNotFound,
	settlement.ErrProductNotFound,
	token.ErrMintNotFound,
}

var conflictErrors = []error{
	market.ErrAlreadyInitialized,
	market.ErrVaultExists,
	catalog.ErrAlreadyInitialized,
	rewards.ErrAlreadyInitialized,
	rewards.ErrVaultExists,
	access.ErrAlreadyRequested,
	escrow.ErrAlreadyInitialized,
	token.ErrMintExists,
}

var forbiddenErrors = []error{
	market.ErrAddressMismatch,
	catalog.ErrUnauthorized,
	catalog.ErrPermissionDenied,
	rewards.ErrAddressMismatch,
	access.ErrAddressMismatch,
	escrow.ErrUnauthorized,
	escrow.ErrAddressMismatch,
	token.ErrUnauthorizedMinter,
	token.ErrNonTransferable,
}

// writeEngineError maps protocol sentinel errors onto HTTP status codes.
// Anything unrecognised is treated as a rejected request rather than a
// server fault: the engines only fail on invalid input or state.
func writeEngineError(w http.ResponseWriter, err error) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusConflict, err)
			return
		}
	}
	for _, target := range forbiddenErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusForbidden, err)
			return
		}
	}
	writeError(w, http.StatusUnprocessableEntity, err)
}
