package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	identitymodels "creditnet/internal/identity/models"
	identitystore "creditnet/internal/identity/store"
	"creditnet/internal/score/models"
	"creditnet/internal/score/onchain"
	"creditnet/internal/score/onchain/mocks"
	scorestore "creditnet/internal/score/store"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/requestcontext"
)

const testSalt = "score-service-test-salt"

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	scores     *scorestore.InMemoryScoreStore
	identities *identitystore.InMemoryIdentityStore
	wallets    *identitystore.InMemoryWalletStore
	reader     *mocks.MockChainReader
	identityID id.IdentityID
	ctx        context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	reader := mocks.NewMockChainReader(ctrl)

	scores := scorestore.NewInMemoryScoreStore()
	identities := identitystore.NewInMemoryIdentityStore()
	wallets := identitystore.NewInMemoryWalletStore()

	ctx := requestcontext.WithNow(context.Background(), fixedNow)

	identity, err := identitymodels.NewIdentity(id.DeriveIdentityID(testSalt, "holder@example.com"), "holder@example.com", "Score", "Holder", fixedNow)
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}
	if err := identities.Create(ctx, identity); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	svc := New(scores, wallets, identities, onchain.New(reader), models.DefaultWeights())
	return &fixture{
		svc:        svc,
		scores:     scores,
		identities: identities,
		wallets:    wallets,
		reader:     reader,
		identityID: identity.ID,
		ctx:        ctx,
	}
}

func (f *fixture) linkWallet(t *testing.T, address string) {
	t.Helper()
	err := f.wallets.Link(f.ctx, &identitymodels.Wallet{
		Address:    address,
		IdentityID: f.identityID,
		LinkedAt:   fixedNow,
	})
	if err != nil {
		t.Fatalf("link wallet %s: %v", address, err)
	}
}

func TestGetComposite_InitializesZeroRecord(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.GetComposite(f.ctx, f.identityID)
	if err != nil {
		t.Fatalf("GetComposite: %v", err)
	}
	if record.OnChainScore != 0 || record.OffChainScore != 0 || record.ReferralScore != 0 {
		t.Errorf("expected zero components, got %+v", record)
	}
	if record.CompositeScore != 0 {
		t.Errorf("expected composite 0, got %d", record.CompositeScore)
	}
}

func TestGetComposite_UnknownIdentity(t *testing.T) {
	f := newFixture(t)

	other := id.DeriveIdentityID(testSalt, "nobody@example.com")
	_, err := f.svc.GetComposite(f.ctx, other)
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Errorf("expected CodeNotFound, got %v", err)
	}
}

func TestRecomputePortfolio_FloorMeanAcrossWallets(t *testing.T) {
	f := newFixture(t)
	f.linkWallet(t, "0x1111111111111111111111111111111111111111")
	f.linkWallet(t, "0x2222222222222222222222222222222222222222")

	// Fully capped wallet scores 850; zero-signal wallet scores 300.
	f.reader.EXPECT().
		WalletSignals(gomock.Any(), "0x1111111111111111111111111111111111111111").
		Return(models.WalletSignals{AddressAgeDays: 365, TransactionCount: 500, ProtocolCount: 20}, nil)
	f.reader.EXPECT().
		WalletSignals(gomock.Any(), "0x2222222222222222222222222222222222222222").
		Return(models.WalletSignals{}, nil)

	if err := f.svc.RecomputePortfolio(f.ctx, f.identityID); err != nil {
		t.Fatalf("RecomputePortfolio: %v", err)
	}

	record, err := f.scores.Find(f.ctx, f.identityID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if record.OnChainScore != 575 {
		t.Errorf("expected on-chain 575 (floor mean of 850 and 300), got %d", record.OnChainScore)
	}
	if !record.LastUpdated.Equal(fixedNow) {
		t.Errorf("expected LastUpdated pinned to %v, got %v", fixedNow, record.LastUpdated)
	}

	// Per-wallet snapshots are refreshed too.
	wallets, err := f.wallets.ListByIdentity(f.ctx, f.identityID)
	if err != nil {
		t.Fatalf("ListByIdentity: %v", err)
	}
	for _, w := range wallets {
		if w.OnChainScore != 850 && w.OnChainScore != 300 {
			t.Errorf("wallet %s snapshot not refreshed: %d", w.Address, w.OnChainScore)
		}
	}
}

func TestRecomputePortfolio_NoWalletsYieldsZero(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.RecomputePortfolio(f.ctx, f.identityID); err != nil {
		t.Fatalf("RecomputePortfolio: %v", err)
	}
	record, err := f.scores.Find(f.ctx, f.identityID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if record.OnChainScore != 0 {
		t.Errorf("expected on-chain 0 with no wallets, got %d", record.OnChainScore)
	}
}

func TestUpdateOffChainScore(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.UpdateOffChainScore(f.ctx, f.identityID, 720, "proof-abc", fixedNow)
	if err != nil {
		t.Fatalf("UpdateOffChainScore: %v", err)
	}
	if record.OffChainScore != 720 {
		t.Errorf("expected off-chain 720, got %d", record.OffChainScore)
	}
	if record.OffChainProofID != "proof-abc" {
		t.Errorf("expected proof reference stored, got %q", record.OffChainProofID)
	}
	// round(0*0.4 + 720*0.6) = 432
	if record.CompositeScore != 432 {
		t.Errorf("expected composite 432, got %d", record.CompositeScore)
	}
}

func TestUpdateOffChainScore_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name       string
		score      int
		proofID    string
		attestedAt time.Time
	}{
		{"below range", 299, "proof", fixedNow},
		{"above range", 851, "proof", fixedNow},
		{"missing proof", 700, "", fixedNow},
		{"missing timestamp", 700, "proof", time.Time{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.UpdateOffChainScore(f.ctx, f.identityID, tc.score, tc.proofID, tc.attestedAt)
			if !dErrors.HasCode(err, dErrors.CodeValidation) {
				t.Errorf("expected CodeValidation, got %v", err)
			}
		})
	}
}

func TestUpdateOffChainScore_UnknownIdentity(t *testing.T) {
	f := newFixture(t)

	other := id.DeriveIdentityID(testSalt, "ghost@example.com")
	_, err := f.svc.UpdateOffChainScore(f.ctx, other, 700, "proof", fixedNow)
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Errorf("expected CodeNotFound, got %v", err)
	}
}

func TestApplyDelta_ClampsComponent(t *testing.T) {
	f := newFixture(t)

	record, err := f.svc.ApplyDelta(f.ctx, f.identityID, models.CategoryOnChain, -10)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if record.OnChainScore != 0 {
		t.Errorf("expected clamp at 0, got %d", record.OnChainScore)
	}

	if _, err := f.svc.UpdateOffChainScore(f.ctx, f.identityID, 845, "proof", fixedNow); err != nil {
		t.Fatalf("UpdateOffChainScore: %v", err)
	}
	record, err = f.svc.ApplyDelta(f.ctx, f.identityID, models.CategoryOffChain, 100)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if record.OffChainScore != models.BureauMax {
		t.Errorf("expected clamp at %d, got %d", models.BureauMax, record.OffChainScore)
	}
}

func TestApplyDelta_UnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyDelta(f.ctx, f.identityID, models.Category("bogus"), 5)
	if !dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		t.Errorf("expected CodeInvalidInput, got %v", err)
	}
}

func TestAddReferralReward_AccumulatesFractions(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.AddReferralReward(f.ctx, f.identityID, 0.3); err != nil {
		t.Fatalf("AddReferralReward: %v", err)
	}
	record, err := f.svc.AddReferralReward(f.ctx, f.identityID, 0.3)
	if err != nil {
		t.Fatalf("AddReferralReward: %v", err)
	}
	if record.ReferralScore != 0.6 {
		t.Errorf("expected referral 0.6, got %v", record.ReferralScore)
	}
	// round(0.6) = 1 on top of zero components.
	if record.CompositeScore != 1 {
		t.Errorf("expected composite 1, got %d", record.CompositeScore)
	}

	record, err = f.svc.AddReferralReward(f.ctx, f.identityID, -0.6)
	if err != nil {
		t.Fatalf("AddReferralReward: %v", err)
	}
	if record.CompositeScore != 0 {
		t.Errorf("expected composite back to 0, got %d", record.CompositeScore)
	}
}
