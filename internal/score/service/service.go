package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	identitymodels "creditnet/internal/identity/models"
	"creditnet/internal/platform/tracer"
	"creditnet/internal/score/models"
	"creditnet/internal/score/onchain"
	"creditnet/internal/score/store"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/sentinel"
	"creditnet/pkg/requestcontext"
)

// WalletSource exposes the registry's wallet state to the aggregator.
// Satisfied by the identity wallet store.
type WalletSource interface {
	ListByIdentity(ctx context.Context, identityID id.IdentityID) ([]*identitymodels.Wallet, error)
	UpdateScore(ctx context.Context, address string, score int) error
}

// IdentitySource confirms identities exist before scores are touched.
// Satisfied by the identity store.
type IdentitySource interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
}

// Service is the composite score aggregator. It owns the weighting formula,
// the off-chain adapter, and on-chain portfolio aggregation.
type Service struct {
	scores     store.ScoreStore
	wallets    WalletSource
	identities IdentitySource
	calc       *onchain.Calculator
	weights    models.Weights

	tracer tracer.Tracer
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithTracer wires distributed tracing.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger overrides the default discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the aggregator.
func New(scores store.ScoreStore, wallets WalletSource, identities IdentitySource, calc *onchain.Calculator, weights models.Weights, opts ...Option) *Service {
	s := &Service{
		scores:     scores,
		wallets:    wallets,
		identities: identities,
		calc:       calc,
		weights:    weights,
		tracer:     tracer.NewNoop(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weights returns the configured blend weights.
func (s *Service) Weights() models.Weights {
	return s.weights
}

// GetComposite returns the identity's score record, initializing the zero
// "no signal" record on first read.
func (s *Service) GetComposite(ctx context.Context, identityID id.IdentityID) (*models.Record, error) {
	if err := s.ensureIdentity(ctx, identityID); err != nil {
		return nil, err
	}
	record, err := s.scores.GetOrCreate(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
	}
	return record, nil
}

// RecomputePortfolio re-scores every linked wallet and refreshes the
// identity's on-chain component as the floor of the arithmetic mean.
// Zero wallets yield 0: "no signal" is a valid low state, not a failure.
func (s *Service) RecomputePortfolio(ctx context.Context, identityID id.IdentityID) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanPortfolioAggregate,
		tracer.String(tracer.AttrIdentityID, identityID.String()),
	)
	defer func() { span.End(err) }()

	wallets, err := s.wallets.ListByIdentity(ctx, identityID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list wallets")
	}
	span.SetAttributes(tracer.Int64(tracer.AttrWalletCount, int64(len(wallets))))

	aggregate := 0
	if len(wallets) > 0 {
		scores := make([]int, len(wallets))
		g, gctx := errgroup.WithContext(ctx)
		for i, wallet := range wallets {
			g.Go(func() error {
				score, err := s.calc.ScoreWallet(gctx, wallet.Address)
				if err != nil {
					return err
				}
				scores[i] = score
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to score wallets")
		}

		sum := 0
		for i, wallet := range wallets {
			if err = s.wallets.UpdateScore(ctx, wallet.Address, scores[i]); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store wallet score")
			}
			sum += scores[i]
		}
		aggregate = sum / len(wallets) // floor of the mean
	}

	record, err := s.scores.GetOrCreate(ctx, identityID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
	}
	record.OnChainScore = aggregate
	record.Recompute(s.weights, requestcontext.Now(ctx))
	if err = s.scores.Save(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score record")
	}
	return nil
}

// UpdateOffChainScore stores an externally attested score. The proof is
// opaque; this adapter records the reference and never verifies it.
// Off-chain updates do not trigger referral propagation.
func (s *Service) UpdateOffChainScore(ctx context.Context, identityID id.IdentityID, score int, proofID string, attestedAt time.Time) (*models.Record, error) {
	if score < models.BureauMin || score > models.BureauMax {
		return nil, dErrors.New(dErrors.CodeValidation, "off-chain score must be within the bureau range")
	}
	if proofID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "attestation proof id is required")
	}
	if attestedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "attestation timestamp is required")
	}
	if err := s.ensureIdentity(ctx, identityID); err != nil {
		return nil, err
	}

	record, err := s.scores.GetOrCreate(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
	}
	record.OffChainScore = score
	record.OffChainProofID = proofID
	record.Recompute(s.weights, requestcontext.Now(ctx))
	if err := s.scores.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score record")
	}
	return record, nil
}

// ApplyDelta shifts one component of the identity's score and recomputes the
// composite. Called by the credit event processor inside its transaction
// boundary; never exposed directly over the API.
func (s *Service) ApplyDelta(ctx context.Context, identityID id.IdentityID, category models.Category, delta int) (*models.Record, error) {
	record, err := s.scores.GetOrCreate(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
	}

	switch category {
	case models.CategoryOnChain:
		record.OnChainScore = models.ClampComponent(record.OnChainScore + delta)
	case models.CategoryOffChain:
		record.OffChainScore = models.ClampComponent(record.OffChainScore + delta)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown score category")
	}

	record.Recompute(s.weights, requestcontext.Now(ctx))
	if err := s.scores.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score record")
	}
	return record, nil
}

// AddReferralReward adjusts the referral component by a decayed delta.
// Negative deltas propagate penalties; referrers share downside risk.
func (s *Service) AddReferralReward(ctx context.Context, identityID id.IdentityID, delta float64) (*models.Record, error) {
	record, err := s.scores.GetOrCreate(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
	}
	record.ReferralScore += delta
	record.Recompute(s.weights, requestcontext.Now(ctx))
	if err := s.scores.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save score record")
	}
	return record, nil
}

func (s *Service) ensureIdentity(ctx context.Context, identityID id.IdentityID) error {
	if identityID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	if _, err := s.identities.FindByID(ctx, identityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	return nil
}
