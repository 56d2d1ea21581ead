// Package weights implements the RLHF token-weight service: per-user,
// per-category token weights updated from observed feedback and served
// to the prompt builder's Thompson sampling and to callers of the
// simpler epsilon-greedy select_tokens API.
package weights

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/pkg/utils"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// dedupeWindow is the idempotency window for duplicate feedback
// submissions of the same (user, image, type, tokens_used) tuple.
const dedupeWindow = 5 * time.Second

// exploreEpsilon is select_tokens' probability of ignoring weight order
// and picking uniformly at random from the candidate set.
const exploreEpsilon = 0.15

// cacheTTL bounds how long a (user, category) weight read may be served
// from cache before a fresh database read is required.
const cacheTTL = 60 * time.Second

// repository is the narrow data-access surface Store depends on,
// satisfied by *database.Repository; tests substitute an in-memory fake.
type repository interface {
	TokenWeight(ctx context.Context, userID string, category enum.WeightCategory, token string) (*models.TokenWeight, error)
	TokenWeightsForCategory(ctx context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error)
	UpsertTokenWeight(ctx context.Context, w *models.TokenWeight) error
	RecentFeedbackEvent(ctx context.Context, userID string, imageID uuid.UUID, feedbackType enum.FeedbackType, within time.Duration) (*models.FeedbackEvent, error)
	SaveFeedbackEvent(ctx context.Context, e *models.FeedbackEvent) error
}

// FeedbackInput is one observed user signal to apply to token weights.
type FeedbackInput struct {
	UserID       string
	ImageID      uuid.UUID
	GenerationID uuid.UUID
	Type         enum.FeedbackType
	TokensUsed   models.TokensUsed
	TimeViewedMS *int64
}

// Store is the RLHF token-weight service.
type Store struct {
	repo   repository
	redis  rueidis.Client
	local  *utils.TTLMap[string, []*models.TokenWeight]
	logger *zap.Logger
	rng    *rand.Rand
}

// NewStore builds a Store. redisClient may be nil; in that case reads
// fall back to an in-process TTL-bounded cache instead of the shared
// redis one, so a single-process deployment still avoids hammering
// Postgres for every sampled category.
func NewStore(repo repository, redisClient rueidis.Client, logger *zap.Logger) *Store {
	return &Store{
		repo:   repo,
		redis:  redisClient,
		local:  utils.NewTTLMap[string, []*models.TokenWeight](cacheTTL, cacheTTL),
		logger: logger.Named("weight_store"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Close stops the local cache's background sweep goroutine. Safe to call
// even when redis is configured (the local cache then simply sits idle).
func (s *Store) Close() {
	s.local.Close()
}

// GetWeights returns every weight row for a user, optionally filtered to
// one category. Single-category lookups go through the local cache when
// redis is unavailable; the "every category" call (category == nil)
// always reads through, since it has no single cache key to bound.
func (s *Store) GetWeights(ctx context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error) {
	if category == nil {
		return s.repo.TokenWeightsForCategory(ctx, userID, nil)
	}

	return s.candidatesFor(ctx, userID, *category)
}

// SelectTokens implements the epsilon-greedy top-k API: with probability
// exploreEpsilon (or always, when exploreMode is set) it samples
// uniformly from the candidate set; otherwise it returns the top-count
// weights by weight descending.
func (s *Store) SelectTokens(ctx context.Context, userID string, category enum.WeightCategory, count int, exploreMode bool) ([]string, error) {
	candidates, err := s.candidatesFor(ctx, userID, category)
	if err != nil {
		return nil, fmt.Errorf("select tokens: %w", err)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	if exploreMode || s.rng.Float64() < exploreEpsilon {
		return s.sampleUniform(candidates, count), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Weight != candidates[j].Weight {
			return candidates[i].Weight > candidates[j].Weight
		}
		return candidates[i].Token < candidates[j].Token
	})

	if count > len(candidates) {
		count = len(candidates)
	}

	tokens := make([]string, count)
	for i := range count {
		tokens[i] = candidates[i].Token
	}

	return tokens, nil
}

// candidatesFor returns the weight rows for (userID, category), serving
// from the local TTL cache when redis is not configured.
func (s *Store) candidatesFor(ctx context.Context, userID string, category enum.WeightCategory) ([]*models.TokenWeight, error) {
	if s.redis != nil {
		return s.repo.TokenWeightsForCategory(ctx, userID, &category)
	}

	key := cacheKey(userID, category)
	if cached, ok := s.local.Get(key); ok {
		return cached, nil
	}

	candidates, err := s.repo.TokenWeightsForCategory(ctx, userID, &category)
	if err != nil {
		return nil, err
	}

	s.local.Set(key, candidates)

	return candidates, nil
}

func (s *Store) sampleUniform(candidates []*models.TokenWeight, count int) []string {
	perm := s.rng.Perm(len(candidates))

	if count > len(perm) {
		count = len(perm)
	}

	tokens := make([]string, count)
	for i := range count {
		tokens[i] = candidates[perm[i]].Token
	}

	return tokens
}

// ProcessFeedback applies one feedback event's reward to every
// (category, token) pair it references, then appends it to the
// append-only log. Duplicate submissions within the dedupe window are
// discarded without re-applying the update.
func (s *Store) ProcessFeedback(ctx context.Context, input FeedbackInput) error {
	hash := tokensUsedHash(input.TokensUsed)

	existing, err := s.repo.RecentFeedbackEvent(ctx, input.UserID, input.ImageID, input.Type, dedupeWindow)
	if err != nil {
		return fmt.Errorf("check feedback idempotency: %w", err)
	}

	if existing != nil && tokensUsedHash(existing.TokensUsed) == hash {
		s.logger.Debug("discarding duplicate feedback event",
			zap.String("user_id", input.UserID), zap.String("type", string(input.Type)))
		return nil
	}

	reward := Reward(input.Type, input.TimeViewedMS)

	categories := sortedCategories(input.TokensUsed)
	for _, category := range categories {
		for _, token := range input.TokensUsed[category] {
			if err := s.applyTokenUpdate(ctx, input.UserID, category, token, reward); err != nil {
				return err
			}
		}
	}

	event := &models.FeedbackEvent{
		ID:           uuid.New(),
		UserID:       input.UserID,
		ImageID:      input.ImageID,
		GenerationID: input.GenerationID,
		Type:         input.Type,
		TokensUsed:   input.TokensUsed,
		Reward:       reward,
		TimeViewedMS: input.TimeViewedMS,
	}

	if err := s.repo.SaveFeedbackEvent(ctx, event); err != nil {
		return fmt.Errorf("save feedback event: %w", err)
	}

	s.invalidateCache(ctx, input.UserID, categories)

	return nil
}

func (s *Store) applyTokenUpdate(ctx context.Context, userID string, category enum.WeightCategory, token string, reward float64) error {
	weight, err := s.repo.TokenWeight(ctx, userID, category, token)
	if err != nil {
		return fmt.Errorf("load token weight: %w", err)
	}

	weight.Weight = ApplyUpdate(weight.Weight, reward)
	weight.UsageCount++

	if reward > 0 {
		weight.PositiveFeedback++
	} else {
		weight.NegativeFeedback++
	}

	if err := s.repo.UpsertTokenWeight(ctx, weight); err != nil {
		return fmt.Errorf("upsert token weight: %w", err)
	}

	return nil
}

func (s *Store) invalidateCache(ctx context.Context, userID string, categories []enum.WeightCategory) {
	for _, category := range categories {
		key := cacheKey(userID, category)

		if s.redis == nil {
			s.local.Delete(key)
			continue
		}

		cmd := s.redis.B().Del().Key(key).Build()
		_ = s.redis.Do(ctx, cmd).Error()
	}
}

func cacheKey(userID string, category enum.WeightCategory) string {
	return fmt.Sprintf("weights:%s:%s", userID, category)
}

func sortedCategories(tokensUsed models.TokensUsed) []enum.WeightCategory {
	categories := make([]enum.WeightCategory, 0, len(tokensUsed))
	for c := range tokensUsed {
		categories = append(categories, c)
	}

	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

	return categories
}

func tokensUsedHash(tokensUsed models.TokensUsed) string {
	categories := sortedCategories(tokensUsed)

	h := ""
	for _, c := range categories {
		tokens := append([]string(nil), tokensUsed[c]...)
		sort.Strings(tokens)
		h += string(c) + ":" + fmt.Sprint(tokens) + "|"
	}

	return h
}
