package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	creditmetrics "creditnet/internal/credit/metrics"
	"creditnet/internal/credit/models"
	"creditnet/internal/credit/store"
	identitymodels "creditnet/internal/identity/models"
	"creditnet/internal/platform/tracer"
	scoremodels "creditnet/internal/score/models"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
	"creditnet/pkg/platform/sentinel"
	"creditnet/pkg/platform/txn"
	"creditnet/pkg/requestcontext"
)

// ScoreAdjuster applies component and referral deltas and recomputes the
// composite. Implemented by the score service.
type ScoreAdjuster interface {
	ApplyDelta(ctx context.Context, identityID id.IdentityID, category scoremodels.Category, delta int) (*scoremodels.Record, error)
	AddReferralReward(ctx context.Context, identityID id.IdentityID, delta float64) (*scoremodels.Record, error)
}

// PathSource supplies the ancestor chain, root-first including the subject.
// Implemented by the referral service.
type PathSource interface {
	GetReferralPath(ctx context.Context, identityID id.IdentityID) ([]id.IdentityID, error)
}

// IdentitySource confirms the event subject exists. Satisfied by the
// identity store.
type IdentitySource interface {
	FindByID(ctx context.Context, identityID id.IdentityID) (*identitymodels.Identity, error)
}

// Decay holds the depth-attenuation rates for reward propagation. The direct
// referrer receives a substantial fraction; deeper ancestors a symbolic
// trickle.
type Decay struct {
	PrimaryRate float64
	DeepRate    float64
}

// Rate returns the attenuation factor at distance d from the subject.
func (d Decay) Rate(distance int) float64 {
	if distance == 1 {
		return d.PrimaryRate
	}
	return d.DeepRate
}

// Service is the credit event processor and reward propagator.
type Service struct {
	events     store.EventStore
	scores     ScoreAdjuster
	paths      PathSource
	identities IdentitySource
	decay      Decay
	tx         txn.Tx

	metrics *creditmetrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics wires prometheus counters.
func WithMetrics(m *creditmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer wires distributed tracing.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithLogger overrides the default discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the processor. tx must be the same serializer the referral
// service uses so propagation never interleaves with edge creation.
func New(events store.EventStore, scores ScoreAdjuster, paths PathSource, identities IdentitySource, decay Decay, tx txn.Tx, opts ...Option) *Service {
	s := &Service{
		events:     events,
		scores:     scores,
		paths:      paths,
		identities: identities,
		decay:      decay,
		tx:         tx,
		tracer:     tracer.NewNoop(),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyCreditEvent appends an audit record, applies the score change to the
// component mapped from the event type, and cascades a decayed fraction to
// every ancestor on the subject's referral path. Subject and ancestors are
// updated inside one transaction boundary: a concurrent reader sees the
// fully pre-event or fully post-event state, never an interleaving.
// Negative changes propagate as penalties with the same decay.
func (s *Service) ApplyCreditEvent(ctx context.Context, identityID id.IdentityID, eventType models.EventType, scoreChange int, description string) (event *models.CreditEvent, err error) {
	event, err = models.NewCreditEvent(
		id.EventID(uuid.New()), identityID, eventType, scoreChange, description, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	// The audit log must never contain entries for non-existent subjects.
	if _, err := s.identities.FindByID(ctx, identityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanApplyCreditEvent,
		tracer.String(tracer.AttrIdentityID, identityID.String()),
		tracer.String(tracer.AttrEventType, string(eventType)),
		tracer.Int64(tracer.AttrScoreChange, int64(scoreChange)),
	)
	defer func() { span.End(err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record credit event")
		}
		if _, err := s.scores.ApplyDelta(ctx, identityID, event.Category(), scoreChange); err != nil {
			return err
		}
		return s.propagate(ctx, identityID, scoreChange)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.EventsApplied.Inc()
	}
	s.logger.InfoContext(ctx, "credit event applied",
		"identity_id", identityID,
		"event_type", eventType,
		"score_change", scoreChange,
	)
	return event, nil
}

// propagate walks the subject's ancestors near-to-far, crediting each with
// scoreChange * decay(distance). Near-to-far ordering means a crash mid-pass
// leaves only a strict prefix of ancestors updated, which is safe to re-drive.
func (s *Service) propagate(ctx context.Context, identityID id.IdentityID, scoreChange int) (err error) {
	path, err := s.paths.GetReferralPath(ctx, identityID)
	if err != nil {
		return err
	}
	// path is root-first and ends with the subject; ancestors near-to-far is
	// the rest of it reversed.
	ancestors := make([]id.IdentityID, 0, len(path)-1)
	for i := len(path) - 2; i >= 0; i-- {
		ancestors = append(ancestors, path[i])
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanRewardPropagation,
		tracer.Int64(tracer.AttrAncestorCount, int64(len(ancestors))),
	)
	defer func() { span.End(err) }()

	for i, ancestor := range ancestors {
		distance := i + 1
		reward := float64(scoreChange) * s.decay.Rate(distance)
		if _, err = s.scores.AddReferralReward(ctx, ancestor, reward); err != nil {
			return err
		}
	}

	if s.metrics != nil {
		s.metrics.PropagationDepth.Observe(float64(len(ancestors)))
	}
	return nil
}

// ListCreditEvents returns the identity's audit trail, newest first.
func (s *Service) ListCreditEvents(ctx context.Context, identityID id.IdentityID) ([]*models.CreditEvent, error) {
	if identityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity ID is required")
	}
	if _, err := s.identities.FindByID(ctx, identityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity lookup failed")
	}
	events, err := s.events.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credit events")
	}
	return events, nil
}
