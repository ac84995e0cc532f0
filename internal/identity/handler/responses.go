package handler

import (
	"time"

	"creditnet/internal/identity/models"
)

type IdentityResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type WalletResponse struct {
	Address      string    `json:"address"`
	IdentityID   string    `json:"identity_id"`
	LinkedAt     time.Time `json:"linked_at"`
	OnChainScore int       `json:"on_chain_score"`
}

type WalletListResponse struct {
	Wallets []*WalletResponse `json:"wallets"`
}

// Response mapping functions - convert domain objects to HTTP DTOs

func toIdentityResponse(identity *models.Identity) *IdentityResponse {
	return &IdentityResponse{
		ID:        identity.ID.String(),
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Active:    identity.Active,
		CreatedAt: identity.CreatedAt,
	}
}

func toWalletResponse(wallet *models.Wallet) *WalletResponse {
	return &WalletResponse{
		Address:      wallet.Address,
		IdentityID:   wallet.IdentityID.String(),
		LinkedAt:     wallet.LinkedAt,
		OnChainScore: wallet.OnChainScore,
	}
}

func toWalletListResponse(wallets []*models.Wallet) *WalletListResponse {
	out := make([]*WalletResponse, 0, len(wallets))
	for _, wallet := range wallets {
		out = append(out, toWalletResponse(wallet))
	}
	return &WalletListResponse{Wallets: out}
}
