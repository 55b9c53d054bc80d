// Package account implements the business operations over the user ledger.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/ticketforge/foreman-bot/internal/accountcache"
	"github.com/ticketforge/foreman-bot/internal/amount"
	"github.com/ticketforge/foreman-bot/internal/domain"
	"github.com/ticketforge/foreman-bot/internal/ledger"
	"github.com/ticketforge/foreman-bot/pkg/metrics"
)

const (
	// redeemDateLayout is the canonical date-only form of last_redeem.
	redeemDateLayout = "2006-01-02"

	// Daily reward bounds, inclusive.
	dailyRewardMin int64 = 20_000
	dailyRewardMax int64 = 100_000

	// currencyPerLoyaltyPoint is the spend required to earn one loyalty point.
	currencyPerLoyaltyPoint int64 = 10_000_000

	accountLockKeyPattern = "account:lock:%s"
	accountLockTTL        = 5 * time.Second
	cacheTTL              = 2 * time.Minute
)

// ClaimResult reports the outcome of a daily-reward claim attempt.
type ClaimResult struct {
	Claimed bool
	// Amount credited to the bank when Claimed.
	Amount int64
	// Remaining time until the next local midnight when on cooldown.
	Remaining time.Duration
}

// Service provides ledger operations for user accounts. Mutations for the
// same user id are serialized through a Redis lock.
type Service struct {
	store       ledger.Store
	cache       *accountcache.Cache
	redisClient *redis.Client
	log         *slog.Logger
	now         func() time.Time
	rewardRoll  func(min, max int64) int64
}

// Option customizes a Service, mainly for tests.
type Option func(*Service)

// WithClock overrides the time source used by daily-reward gating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRewardRoll overrides the daily-reward random draw.
func WithRewardRoll(roll func(min, max int64) int64) Option {
	return func(s *Service) { s.rewardRoll = roll }
}

// WithCache attaches a read-through cache for account lookups.
func WithCache(cache *accountcache.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// NewService constructs a Service. The redis client is used for per-user
// locking and may be nil, in which case locking is skipped.
func NewService(store ledger.Store, redisClient *redis.Client, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		store:       store,
		redisClient: redisClient,
		log:         log,
		now:         time.Now,
		rewardRoll: func(min, max int64) int64 {
			return min + rand.Int64N(max-min+1)
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// EnsureAndFetch guarantees the account record exists and returns it.
func (s *Service) EnsureAndFetch(ctx context.Context, userID string) (*domain.Account, error) {
	if cached, err := s.cache.Get(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}

	created, err := s.store.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}
	if created {
		s.log.Info("created ledger account", slog.String("user_id", userID))
	}

	account, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := s.cache.Set(ctx, account, cacheTTL); err != nil {
		s.log.Warn("failed to cache account", slog.String("user_id", userID), slog.Any("error", err))
	}

	return account, nil
}

// CreditSpend parses the magnitude string, adds it to the payer's cumulative
// spend, and accrues one loyalty point per 10m spent. Both updates commit
// before returning. A malformed amount fails with amount.ErrInvalidAmount
// before any ledger mutation beyond the idempotent ensure.
func (s *Service) CreditSpend(ctx context.Context, userID, amountText string) (newSpent, loyaltyGained int64, err error) {
	value, err := amount.Parse(amountText)
	if err != nil {
		return 0, 0, err
	}

	if err := s.lock(ctx, userID); err != nil {
		return 0, 0, err
	}
	defer s.unlock(ctx, userID)

	account, err := s.ensureAndGet(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	newSpent = account.Spent + value
	if err := s.store.SetField(ctx, userID, ledger.FieldSpent, newSpent); err != nil {
		metrics.RecordLedgerOp("credit_spend", "error")
		return 0, 0, fmt.Errorf("update spent: %w", err)
	}

	loyaltyGained = value / currencyPerLoyaltyPoint
	if loyaltyGained != 0 {
		if err := s.store.IncrementField(ctx, userID, ledger.FieldLoyaltyPoints, loyaltyGained); err != nil {
			metrics.RecordLedgerOp("credit_spend", "error")
			return 0, 0, fmt.Errorf("accrue loyalty points: %w", err)
		}
	}

	s.invalidate(ctx, userID)
	metrics.RecordLedgerOp("credit_spend", "ok")

	s.log.Info("credited spend",
		slog.String("user_id", userID),
		slog.Int64("amount", value),
		slog.Int64("loyalty_gained", loyaltyGained),
	)

	return newSpent, loyaltyGained, nil
}

// AdjustLoyalty adds delta (possibly negative) to the user's loyalty points.
// There is no floor: balances may go negative.
func (s *Service) AdjustLoyalty(ctx context.Context, userID string, delta int64) (int64, error) {
	if err := s.lock(ctx, userID); err != nil {
		return 0, err
	}
	defer s.unlock(ctx, userID)

	if _, err := s.ensureAndGet(ctx, userID); err != nil {
		return 0, err
	}

	if err := s.store.IncrementField(ctx, userID, ledger.FieldLoyaltyPoints, delta); err != nil {
		metrics.RecordLedgerOp("adjust_loyalty", "error")
		return 0, fmt.Errorf("adjust loyalty points: %w", err)
	}

	s.invalidate(ctx, userID)
	metrics.RecordLedgerOp("adjust_loyalty", "ok")

	account, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}

	return account.LoyaltyPoints, nil
}

// AddBank parses the magnitude string and adds it to the bank balance.
func (s *Service) AddBank(ctx context.Context, userID, amountText string) (int64, error) {
	return s.adjustBank(ctx, userID, amountText, 1)
}

// SubtractBank parses the magnitude string and subtracts it from the bank
// balance. No floor is applied.
func (s *Service) SubtractBank(ctx context.Context, userID, amountText string) (int64, error) {
	return s.adjustBank(ctx, userID, amountText, -1)
}

func (s *Service) adjustBank(ctx context.Context, userID, amountText string, sign int64) (int64, error) {
	value, err := amount.Parse(amountText)
	if err != nil {
		return 0, err
	}

	if err := s.lock(ctx, userID); err != nil {
		return 0, err
	}
	defer s.unlock(ctx, userID)

	if _, err := s.ensureAndGet(ctx, userID); err != nil {
		return 0, err
	}

	if err := s.store.IncrementField(ctx, userID, ledger.FieldBank, sign*value); err != nil {
		metrics.RecordLedgerOp("adjust_bank", "error")
		return 0, fmt.Errorf("adjust bank: %w", err)
	}

	s.invalidate(ctx, userID)
	metrics.RecordLedgerOp("adjust_bank", "ok")

	account, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get account: %w", err)
	}

	return account.Bank, nil
}

// ClaimDaily resolves a daily-reward claim. The gate is per calendar day:
// a claim succeeds whenever last_redeem differs from today's date, and the
// cooldown always expires at the next local midnight rather than 24h after
// the last claim.
func (s *Service) ClaimDaily(ctx context.Context, userID string) (*ClaimResult, error) {
	if err := s.lock(ctx, userID); err != nil {
		return nil, err
	}
	defer s.unlock(ctx, userID)

	account, err := s.ensureAndGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(redeemDateLayout)

	if account.LastRedeem == today {
		midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		metrics.RecordDailyClaim("cooldown")
		return &ClaimResult{Remaining: midnight.Sub(now)}, nil
	}

	reward := s.rewardRoll(dailyRewardMin, dailyRewardMax)

	if err := s.store.IncrementField(ctx, userID, ledger.FieldBank, reward); err != nil {
		metrics.RecordDailyClaim("error")
		return nil, fmt.Errorf("credit daily reward: %w", err)
	}
	if err := s.store.SetField(ctx, userID, ledger.FieldLastRedeem, today); err != nil {
		metrics.RecordDailyClaim("error")
		return nil, fmt.Errorf("record redeem date: %w", err)
	}

	s.invalidate(ctx, userID)
	metrics.RecordDailyClaim("claimed")

	s.log.Info("daily reward claimed", slog.String("user_id", userID), slog.Int64("reward", reward))

	return &ClaimResult{Claimed: true, Amount: reward}, nil
}

func (s *Service) ensureAndGet(ctx context.Context, userID string) (*domain.Account, error) {
	if _, err := s.store.Ensure(ctx, userID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	account, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	return account, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate account cache", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (s *Service) lock(ctx context.Context, userID string) error {
	if s.redisClient == nil {
		return nil
	}

	key := fmt.Sprintf(accountLockKeyPattern, userID)
	acquired, err := s.redisClient.SetNX(ctx, key, 1, accountLockTTL).Result()
	if err != nil {
		s.log.Error("failed to acquire account lock", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	if !acquired {
		s.log.Warn("account lock already held", slog.String("user_id", userID))
		return ErrAccountLocked
	}

	return nil
}

func (s *Service) unlock(ctx context.Context, userID string) {
	if s.redisClient == nil {
		return
	}

	key := fmt.Sprintf(accountLockKeyPattern, userID)
	if err := s.redisClient.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to release account lock", slog.String("user_id", userID), slog.Any("error", err))
	}
}
