package service

import (
	"errors"
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam_prep_backend/pkg/monitoring"
)

// 受熔断保护的依赖类别
const (
	DependencyQuizGeneration = "quiz_generation"
	DependencyAnswerScoring  = "answer_scoring"
)

// CircuitBreakerService 按 (用户, 依赖类别) 的熔断器。
// 所有依赖调用统一经 Guard 包装，失败记账集中在一处，
// 不允许调用点各自散落重试逻辑。
type CircuitBreakerService struct {
	Repo *repository.CircuitBreakerRepository
	cfg  config.EngineConfig
}

func NewCircuitBreakerService(repo *repository.CircuitBreakerRepository, cfg config.EngineConfig) *CircuitBreakerService {
	return &CircuitBreakerService{Repo: repo, cfg: cfg}
}

// IsOpen 查询熔断状态。无记录视为闭合。
// 打开后经过冷却期进入半开：放行一次探测调用，成功即复位闭合，
// 失败则刷新 OpenedAt 重新计时。
func (s *CircuitBreakerService) IsOpen(userID uint, dependency string) (bool, error) {
	state, err := s.Repo.Find(userID, dependency)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !state.IsOpen {
		return false, nil
	}
	cooldown := time.Duration(s.cfg.BreakerCooldownMinutes) * time.Minute
	if state.OpenedAt != nil && cooldown > 0 && time.Since(*state.OpenedAt) >= cooldown {
		return false, nil
	}
	return true, nil
}

// RecordFailure 记一次失败并应用双重上界，达到阈值即打开熔断
func (s *CircuitBreakerService) RecordFailure(userID uint, dependency string) error {
	return s.Repo.Transaction(func(tx *gorm.DB) error {
		state, err := s.Repo.FindOrCreate(tx, userID, dependency)
		if err != nil {
			return err
		}
		wasOpen := state.IsOpen
		state.RecordFailure(time.Now(), s.cfg.BreakerWindowDays, s.cfg.BreakerMaxFailureDates, s.cfg.BreakerFailureThreshold)
		if state.IsOpen && !wasOpen {
			monitoring.CircuitOpenCounter.WithLabelValues(dependency).Inc()
			logger.Log.Warn("circuit breaker opened",
				zap.Uint("userId", userID),
				zap.String("dependency", dependency),
				zap.Int("consecutiveFailures", state.ConsecutiveFailures))
		}
		return s.Repo.Save(tx, state)
	})
}

// RecordSuccess 成功后无条件复位并闭合
func (s *CircuitBreakerService) RecordSuccess(userID uint, dependency string) error {
	return s.Repo.Transaction(func(tx *gorm.DB) error {
		state, err := s.Repo.FindOrCreate(tx, userID, dependency)
		if err != nil {
			return err
		}
		if state.ConsecutiveFailures == 0 && !state.IsOpen {
			return nil
		}
		state.RecordSuccess()
		return s.Repo.Save(tx, state)
	})
}

// Guard 熔断打开时直接返回 ErrCircuitOpen（调用方呈现"稍后再试"，
// 不暴露内部失败计数）；否则执行 fn 并记账。校验类错误原样上抛、
// 不计入失败：熔断只统计瞬态依赖故障。
func (s *CircuitBreakerService) Guard(userID uint, dependency string, fn func() error) error {
	open, err := s.IsOpen(userID, dependency)
	if err != nil {
		return err
	}
	if open {
		return util.ErrCircuitOpen
	}

	if err := fn(); err != nil {
		if isValidationError(err) {
			return err
		}
		if recErr := s.RecordFailure(userID, dependency); recErr != nil {
			logger.Log.Error("failed to record breaker failure", zap.Error(recErr))
		}
		return err
	}

	if recErr := s.RecordSuccess(userID, dependency); recErr != nil {
		logger.Log.Error("failed to record breaker success", zap.Error(recErr))
	}
	return nil
}

// isValidationError 立即拒绝类错误，不参与熔断记账
func isValidationError(err error) bool {
	for _, target := range []error{
		util.ErrSessionNotFound,
		util.ErrSessionNotActive,
		util.ErrSessionExists,
		util.ErrPositionAnswered,
		util.ErrInvalidPosition,
		util.ErrMalformedQuestion,
		util.ErrNotMockTest,
		util.ErrInvalidAnswerFormat,
		util.ErrNoEligibleQuestions,
		util.ErrPermissionDenied,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
