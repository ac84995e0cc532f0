package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	identitymodels "creditnet/internal/identity/models"
	scoremodels "creditnet/internal/score/models"
	statsmetrics "creditnet/internal/stats/metrics"
	id "creditnet/pkg/domain"
	dErrors "creditnet/pkg/domain-errors"
)

// IdentitySource reads registry state. Satisfied by the identity store.
type IdentitySource interface {
	ListAll(ctx context.Context) ([]*identitymodels.Identity, error)
	Count(ctx context.Context) (int, error)
}

// EdgeSource reads referral graph state. Satisfied by the edge store.
type EdgeSource interface {
	CountAll(ctx context.Context) (int, error)
	CountByReferrer(ctx context.Context, referrerID id.IdentityID) (int, error)
}

// EventSource reads audit trail totals. Satisfied by the event store.
type EventSource interface {
	CountAll(ctx context.Context) (int, error)
}

// ScoreSource reads score records. Satisfied by the score store.
type ScoreSource interface {
	GetOrCreate(ctx context.Context, identityID id.IdentityID) (*scoremodels.Record, error)
}

// LeaderboardType selects the ranking dimension.
type LeaderboardType string

const (
	LeaderboardByScore     LeaderboardType = "score"
	LeaderboardByReferrals LeaderboardType = "referrals"
)

// ParseLeaderboardType validates a ranking dimension at the boundary.
func ParseLeaderboardType(s string) (LeaderboardType, error) {
	switch LeaderboardType(s) {
	case LeaderboardByScore, LeaderboardByReferrals:
		return LeaderboardType(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "leaderboard type must be score or referrals")
	}
}

// NetworkStats is the read-only aggregate over the registry, graph, and
// scores.
type NetworkStats struct {
	TotalIdentities      int     `json:"total_identities"`
	TotalReferralEdges   int     `json:"total_referral_edges"`
	TotalCreditEvents    int     `json:"total_credit_events"`
	AverageReferralScore float64 `json:"average_referral_score"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank           int           `json:"rank"`
	IdentityID     id.IdentityID `json:"identity_id"`
	Email          string        `json:"email"`
	CompositeScore int           `json:"composite_score"`
	ReferralCount  int           `json:"referral_count"`
	RegisteredAt   time.Time     `json:"registered_at"`
}

// Service computes network statistics and leaderboards. Read-only: it
// mutates nothing, so it reads lock-free against store snapshots.
type Service struct {
	identities IdentitySource
	edges      EdgeSource
	events     EventSource
	scores     ScoreSource

	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *statsmetrics.Metrics
	logger   *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithCache wires the optional redis leaderboard cache.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = client
		s.cacheTTL = ttl
	}
}

// WithMetrics wires prometheus counters.
func WithMetrics(m *statsmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger overrides the default discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs the stats service.
func New(identities IdentitySource, edges EdgeSource, events EventSource, scores ScoreSource, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		edges:      edges,
		events:     events,
		scores:     scores,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetNetworkStats returns totals and the average referral score across all
// identities. Zero identities yield a zero average, not an error.
func (s *Service) GetNetworkStats(ctx context.Context) (*NetworkStats, error) {
	totalIdentities, err := s.identities.Count(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count identities")
	}
	totalEdges, err := s.edges.CountAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count referral edges")
	}
	totalEvents, err := s.events.CountAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credit events")
	}

	stats := &NetworkStats{
		TotalIdentities:    totalIdentities,
		TotalReferralEdges: totalEdges,
		TotalCreditEvents:  totalEvents,
	}
	if totalIdentities == 0 {
		return stats, nil
	}

	all, err := s.identities.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}
	sum := 0.0
	for _, identity := range all {
		record, err := s.scores.GetOrCreate(ctx, identity.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
		}
		sum += record.ReferralScore
	}
	stats.AverageReferralScore = sum / float64(len(all))
	return stats, nil
}

// GetLeaderboard ranks all identities descending by composite score or by
// direct-referral count. Ties break by earliest registration time, then by
// id, so repeated calls return the same order. limit <= 0 returns all rows.
func (s *Service) GetLeaderboard(ctx context.Context, lbType LeaderboardType, limit int) ([]LeaderboardEntry, error) {
	if cached, ok := s.fromCache(ctx, lbType); ok {
		return truncate(cached, limit), nil
	}

	all, err := s.identities.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list identities")
	}

	entries := make([]LeaderboardEntry, 0, len(all))
	for _, identity := range all {
		record, err := s.scores.GetOrCreate(ctx, identity.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load score record")
		}
		referrals, err := s.edges.CountByReferrer(ctx, identity.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count referrals")
		}
		entries = append(entries, LeaderboardEntry{
			IdentityID:     identity.ID,
			Email:          identity.Email,
			CompositeScore: record.CompositeScore,
			ReferralCount:  referrals,
			RegisteredAt:   identity.CreatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		av, bv := a.CompositeScore, b.CompositeScore
		if lbType == LeaderboardByReferrals {
			av, bv = a.ReferralCount, b.ReferralCount
		}
		if av != bv {
			return av > bv
		}
		if !a.RegisteredAt.Equal(b.RegisteredAt) {
			return a.RegisteredAt.Before(b.RegisteredAt)
		}
		return a.IdentityID.String() < b.IdentityID.String()
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	s.toCache(ctx, lbType, entries)
	return truncate(entries, limit), nil
}

func truncate(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func cacheKey(lbType LeaderboardType) string {
	return "leaderboard:" + string(lbType)
}

// fromCache returns the cached ranking if present. Cache errors degrade to a
// recompute, never to a failed read.
func (s *Service) fromCache(ctx context.Context, lbType LeaderboardType) ([]LeaderboardEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, cacheKey(lbType)).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.ErrorContext(ctx, "leaderboard cache read failed", "error", err)
		}
		if s.metrics != nil {
			s.metrics.LeaderboardCacheMisses.Inc()
		}
		return nil, false
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		s.logger.ErrorContext(ctx, "leaderboard cache decode failed", "error", err)
		return nil, false
	}
	if s.metrics != nil {
		s.metrics.LeaderboardCacheHits.Inc()
	}
	return entries, true
}

func (s *Service) toCache(ctx context.Context, lbType LeaderboardType, entries []LeaderboardEntry) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		s.logger.ErrorContext(ctx, "leaderboard cache encode failed", "error", err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey(lbType), payload, s.cacheTTL).Err(); err != nil {
		s.logger.ErrorContext(ctx, "leaderboard cache write failed", "error", err)
	}
}
