package handler

import (
	"net/http"

	"github.com/rdlucca/escrowd/internal/domain"
	"github.com/rdlucca/escrowd/internal/ledger"
)

// RegistryHandler handles bootstrap endpoints that seed the in-memory
// ownership registry and payments ledger. In a deployment backed by
// real custody and payment rails these routes would not exist.
type RegistryHandler struct {
	owners   *ledger.InMemoryOwnership
	payments *ledger.InMemoryPayments
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(owners *ledger.InMemoryOwnership, payments *ledger.InMemoryPayments) *RegistryHandler {
	return &RegistryHandler{owners: owners, payments: payments}
}

// mintAssetRequest is the JSON request body for POST /registry/assets.
type mintAssetRequest struct {
	AssetID string `json:"asset_id"`
	Owner   string `json:"owner"`
}

// depositRequest is the JSON request body for POST /registry/balances.
type depositRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// MintAsset handles POST /registry/assets.
func (h *RegistryHandler) MintAsset(w http.ResponseWriter, r *http.Request) {
	var req mintAssetRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.AssetID == "" || req.Owner == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "asset_id and owner are required")
		return
	}

	h.owners.Mint(domain.AssetID(req.AssetID), domain.Account(req.Owner))

	WriteJSON(w, http.StatusCreated, map[string]string{
		"asset_id": req.AssetID,
		"owner":    req.Owner,
	})
}

// Deposit handles POST /registry/balances.
func (h *RegistryHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Account == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account is required")
		return
	}
	if req.Amount <= 0 {
		WriteError(w, http.StatusBadRequest, "validation_error", "amount must be a positive integer")
		return
	}

	h.payments.Deposit(domain.Account(req.Account), req.Amount)

	WriteJSON(w, http.StatusCreated, map[string]any{
		"account": req.Account,
		"balance": h.payments.Balance(domain.Account(req.Account)),
	})
}
