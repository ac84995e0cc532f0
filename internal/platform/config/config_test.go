package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.InDelta(t, 0.4, cfg.OnChainWeight, 1e-9)
	assert.InDelta(t, 0.6, cfg.OffChainWeight, 1e-9)
	assert.InDelta(t, 0.2, cfg.PrimaryRate, 1e-9)
	assert.InDelta(t, 0.001, cfg.DeepRate, 1e-9)
	assert.Equal(t, 10, cfg.WalletCap)
	assert.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
	assert.False(t, cfg.DemoMode)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ONCHAIN_WEIGHT", "0.7")
	t.Setenv("WALLET_CAP", "3")
	t.Setenv("INVITATION_TTL", "48h")
	t.Setenv("DEMO_MODE", "true")

	cfg := FromEnv()
	assert.InDelta(t, 0.7, cfg.OnChainWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.OffChainWeight, 1e-9)
	assert.Equal(t, 3, cfg.WalletCap)
	assert.Equal(t, 48*time.Hour, cfg.InvitationTTL)
	assert.True(t, cfg.DemoMode)
}

func TestFromEnvRejectsInvalidWeight(t *testing.T) {
	t.Setenv("ONCHAIN_WEIGHT", "1.5")

	cfg := FromEnv()
	assert.InDelta(t, 0.4, cfg.OnChainWeight, 1e-9)
	assert.InDelta(t, 0.6, cfg.OffChainWeight, 1e-9)
}
