package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"creditnet/internal/credit/models"
	creditstore "creditnet/internal/credit/store"
	identitymodels "creditnet/internal/identity/models"
	identitystore "creditnet/internal/identity/store"
	referralservice "creditnet/internal/referral/service"
	referralstore "creditnet/internal/referral/store"
	scoremodels "creditnet/internal/score/models"
	"creditnet/internal/score/onchain"
	scoreservice "creditnet/internal/score/service"
	scorestore "creditnet/internal/score/store"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/txn"
	"creditnet/pkg/requestcontext"
)

const testSalt = "credit-service-test-salt"

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	events     *creditstore.InMemoryEventStore
	scores     *scorestore.InMemoryScoreStore
	referrals  *referralservice.Service
	identities *identitystore.InMemoryIdentityStore
	ctx        context.Context
}

// stubReader satisfies the chain reader without touching a chain; portfolio
// aggregation is exercised in the score service tests.
type stubReader struct{}

func (stubReader) WalletSignals(context.Context, string) (scoremodels.WalletSignals, error) {
	return scoremodels.WalletSignals{}, nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tx := txn.NewInMemory()
	identities := identitystore.NewInMemoryIdentityStore()
	wallets := identitystore.NewInMemoryWalletStore()
	scores := scorestore.NewInMemoryScoreStore()
	events := creditstore.NewInMemoryEventStore()

	scoreSvc := scoreservice.New(scores, wallets, identities, onchain.New(stubReader{}), scoremodels.DefaultWeights())
	referralSvc := referralservice.New(
		referralstore.NewInMemoryInvitationStore(),
		referralstore.NewInMemoryEdgeStore(),
		identities, testSalt, 7*24*time.Hour, tx,
	)
	svc := New(events, scoreSvc, referralSvc, identities,
		Decay{PrimaryRate: 0.2, DeepRate: 0.001}, tx)

	return &fixture{
		svc:        svc,
		events:     events,
		scores:     scores,
		referrals:  referralSvc,
		identities: identities,
		ctx:        requestcontext.WithNow(context.Background(), fixedNow),
	}
}

func (f *fixture) register(t *testing.T, email string) *identitymodels.Identity {
	t.Helper()
	identity, err := identitymodels.NewIdentity(id.DeriveIdentityID(testSalt, email), email, "Test", "User", fixedNow)
	if err != nil {
		t.Fatalf("NewIdentity(%s): %v", email, err)
	}
	if err := f.identities.Create(f.ctx, identity); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return identity
}

// refer builds a referral edge inviter -> inviteeEmail through the real
// invitation flow and registers the invitee.
func (f *fixture) refer(t *testing.T, inviter *identitymodels.Identity, inviteeEmail string) *identitymodels.Identity {
	t.Helper()
	invitation, err := f.referrals.CreateInvitation(f.ctx, inviter.ID, inviteeEmail, "join")
	if err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}
	if _, err := f.referrals.AcceptInvitation(f.ctx, invitation.Token, inviteeEmail); err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	return f.register(t, inviteeEmail)
}

func (f *fixture) record(t *testing.T, identityID id.IdentityID) *scoremodels.Record {
	t.Helper()
	record, err := f.scores.Find(f.ctx, identityID)
	if err != nil {
		t.Fatalf("Find score record %s: %v", identityID, err)
	}
	return record
}

func TestApplyCreditEvent_DirectReferrerReward(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")
	b := f.refer(t, a, "b@x.com")

	event, err := f.svc.ApplyCreditEvent(f.ctx, b.ID, models.EventPaymentOnTime, 10, "on-time payment")
	if err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}
	if event.Category() != scoremodels.CategoryOffChain {
		t.Errorf("expected off-chain category, got %s", event.Category())
	}

	// Subject: off-chain component moves by the full change.
	subject := f.record(t, b.ID)
	if subject.OffChainScore != 10 {
		t.Errorf("subject off-chain = %d, want 10", subject.OffChainScore)
	}
	if subject.CompositeScore != 6 { // round(10 * 0.6)
		t.Errorf("subject composite = %d, want 6", subject.CompositeScore)
	}

	// Direct referrer: exactly scoreChange * primaryRate, recomputed in the
	// same call.
	referrer := f.record(t, a.ID)
	if referrer.ReferralScore != 2.0 {
		t.Errorf("referrer referral = %v, want 2.0", referrer.ReferralScore)
	}
	if referrer.CompositeScore != 2 {
		t.Errorf("referrer composite = %d, want 2", referrer.CompositeScore)
	}
}

func TestApplyCreditEvent_DeepAncestorTrickle(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")
	b := f.refer(t, a, "b@x.com")
	c := f.refer(t, b, "c@x.com")

	if _, err := f.svc.ApplyCreditEvent(f.ctx, c.ID, models.EventLoanRepaid, 100, ""); err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}

	if got := f.record(t, c.ID).OnChainScore; got != 100 {
		t.Errorf("subject on-chain = %d, want 100", got)
	}
	if got := f.record(t, b.ID).ReferralScore; got != 20.0 {
		t.Errorf("parent referral = %v, want 20.0 (primary rate)", got)
	}
	if got := f.record(t, a.ID).ReferralScore; got != 0.1 {
		t.Errorf("grandparent referral = %v, want 0.1 (deep rate)", got)
	}
}

func TestApplyCreditEvent_NegativePropagatesAsPenalty(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")
	b := f.refer(t, a, "b@x.com")

	// Build up the subject first so the penalty has something to bite.
	if _, err := f.svc.ApplyCreditEvent(f.ctx, b.ID, models.EventLoanRepaid, 50, ""); err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}
	if _, err := f.svc.ApplyCreditEvent(f.ctx, b.ID, models.EventLoanDefaulted, -30, "missed obligation"); err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}

	if got := f.record(t, b.ID).OnChainScore; got != 20 {
		t.Errorf("subject on-chain = %d, want 20", got)
	}
	// +10 then -6: referrers share downside risk.
	if got := f.record(t, a.ID).ReferralScore; got != 4.0 {
		t.Errorf("referrer referral = %v, want 4.0", got)
	}
}

func TestApplyCreditEvent_ComponentClamped(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")

	if _, err := f.svc.ApplyCreditEvent(f.ctx, a.ID, models.EventLoanDefaulted, -40, ""); err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}
	if got := f.record(t, a.ID).OnChainScore; got != 0 {
		t.Errorf("expected component clamped at 0, got %d", got)
	}
}

func TestApplyCreditEvent_ConcurrentReadersSeeConsistentRecords(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")
	b := f.refer(t, a, "b@x.com")

	// Readers race the propagation writes. Every snapshot they observe must
	// be internally consistent: the stored composite always agrees with the
	// components it was computed from.
	weights := scoremodels.DefaultWeights()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			for _, subject := range []id.IdentityID{a.ID, b.ID} {
				record, err := f.scores.GetOrCreate(f.ctx, subject)
				if err != nil {
					t.Errorf("GetOrCreate(%s): %v", subject, err)
					return
				}
				want := scoremodels.ComputeComposite(record.OnChainScore, record.OffChainScore, record.ReferralScore, weights)
				if record.CompositeScore != want {
					t.Errorf("composite %d disagrees with components (want %d)", record.CompositeScore, want)
					return
				}
			}
		}
	}()

	for range 50 {
		if _, err := f.svc.ApplyCreditEvent(f.ctx, b.ID, models.EventPaymentOnTime, 5, ""); err != nil {
			t.Fatalf("ApplyCreditEvent: %v", err)
		}
	}
	close(done)
	wg.Wait()

	if got := f.record(t, b.ID).OffChainScore; got != 250 {
		t.Errorf("subject off-chain = %d, want 250", got)
	}
	if got := f.record(t, a.ID).ReferralScore; got != 50.0 {
		t.Errorf("referrer referral = %v, want 50.0", got)
	}
}

func TestApplyCreditEvent_UnknownIdentityRecordsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ApplyCreditEvent(f.ctx, id.DeriveIdentityID(testSalt, "ghost@x.com"), models.EventLoanRepaid, 10, "")
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Errorf("expected CodeNotFound, got %v", err)
	}

	count, err := f.events.CountAll(f.ctx)
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 0 {
		t.Errorf("audit trail must stay empty for unknown subjects, got %d events", count)
	}
}

func TestApplyCreditEvent_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")

	cases := []struct {
		name        string
		eventType   models.EventType
		scoreChange int
	}{
		{"unknown event type", models.EventType("mystery"), 10},
		{"zero change", models.EventLoanRepaid, 0},
		{"change beyond bound", models.EventLoanRepaid, models.MaxScoreChange + 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.ApplyCreditEvent(f.ctx, a.ID, tc.eventType, tc.scoreChange, "")
			if !dErrors.HasCode(err, dErrors.CodeValidation) {
				t.Errorf("expected CodeValidation, got %v", err)
			}
		})
	}

	count, err := f.events.CountAll(f.ctx)
	if err != nil {
		t.Fatalf("CountAll: %v", err)
	}
	if count != 0 {
		t.Errorf("rejected events must not reach the audit trail, got %d", count)
	}
}

func TestListCreditEvents(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "a@x.com")

	first, err := f.svc.ApplyCreditEvent(f.ctx, a.ID, models.EventLoanRepaid, 10, "first")
	if err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}
	later := requestcontext.WithNow(context.Background(), fixedNow.Add(time.Hour))
	second, err := f.svc.ApplyCreditEvent(later, a.ID, models.EventPaymentOnTime, 5, "second")
	if err != nil {
		t.Fatalf("ApplyCreditEvent: %v", err)
	}

	events, err := f.svc.ListCreditEvents(f.ctx, a.ID)
	if err != nil {
		t.Fatalf("ListCreditEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != second.ID || events[1].ID != first.ID {
		t.Error("expected events newest first")
	}
}

func TestListCreditEvents_UnknownIdentity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListCreditEvents(f.ctx, id.DeriveIdentityID(testSalt, "ghost@x.com"))
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Errorf("expected CodeNotFound, got %v", err)
	}
}
