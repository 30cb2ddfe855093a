package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const abilityCacheTTL = 60 * time.Second

// WeeklyStatView 周统计对外视图，正确率在读取时推导
type WeeklyStatView struct {
	WeekEnd          string  `json:"weekEnd"`
	DaysPracticed    int     `json:"daysPracticed"`
	TotalQuizzes     int     `json:"totalQuizzes"`
	TotalQuestions   int     `json:"totalQuestions"`
	TotalCorrect     int     `json:"totalCorrect"`
	TotalTimeMinutes int     `json:"totalTimeMinutes"`
	Accuracy         float64 `json:"accuracy"`
}

// StreakSummary 连续练习概览
type StreakSummary struct {
	CurrentStreak    int              `json:"currentStreak"`
	LongestStreak    int              `json:"longestStreak"`
	LastPracticeDate string           `json:"lastPracticeDate"`
	PracticeDays     []string         `json:"practiceDays"`
	WeeklyStats      []WeeklyStatView `json:"weeklyStats"`
}

// AnalyticsService 学情查询的读侧聚合。能力画像带短TTL缓存，
// 作答后的短暂陈旧可接受，不做主动失效。
type AnalyticsService struct {
	AbilityRepo *repository.AbilityProfileRepository
	StreakRepo  *repository.StreakRepository
	Redis       *redis.Client
}

func NewAnalyticsService(abilityRepo *repository.AbilityProfileRepository, streakRepo *repository.StreakRepository, rdb *redis.Client) *AnalyticsService {
	return &AnalyticsService{
		AbilityRepo: abilityRepo,
		StreakRepo:  streakRepo,
		Redis:       rdb,
	}
}

// GetAbilityProfile 单学科能力画像。无作答记录时返回初始估计
// （theta=0、SE=1.0）而非404：尚未测评也是有效状态。
func (s *AnalyticsService) GetAbilityProfile(ctx context.Context, userID uint, subject string) (*model.AbilityProfile, error) {
	cacheKey := fmt.Sprintf("engine:ability:%d:%s", userID, subject)
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var cached model.AbilityProfile
			if json.Unmarshal([]byte(val), &cached) == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("ability cache read failed", zap.Error(err))
		}
	}

	profile, err := s.AbilityRepo.FindByUserAndSubject(userID, subject)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		profile = &model.AbilityProfile{
			UserID:        userID,
			Subject:       subject,
			Theta:         0,
			StandardError: 1.0,
		}
	}

	if s.Redis != nil {
		if b, err := json.Marshal(profile); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, b, abilityCacheTTL).Err(); err != nil {
				logger.Log.Warn("ability cache write failed", zap.Error(err))
			}
		}
	}
	return profile, nil
}

// ListAbilityProfiles 用户所有学科的能力画像，按学科排序
func (s *AnalyticsService) ListAbilityProfiles(userID uint) ([]model.AbilityProfile, error) {
	return s.AbilityRepo.FindByUser(userID)
}

// GetStreakSummary 连续练习与周统计概览。无记录返回零值概览。
func (s *AnalyticsService) GetStreakSummary(userID uint) (*StreakSummary, error) {
	record, err := s.StreakRepo.Find(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StreakSummary{
				PracticeDays: []string{},
				WeeklyStats:  []WeeklyStatView{},
			}, nil
		}
		return nil, err
	}

	weekly := make([]WeeklyStatView, len(record.WeeklyStats))
	for i, w := range record.WeeklyStats {
		weekly[i] = WeeklyStatView{
			WeekEnd:          w.WeekEnd,
			DaysPracticed:    w.DaysPracticed,
			TotalQuizzes:     w.TotalQuizzes,
			TotalQuestions:   w.TotalQuestions,
			TotalCorrect:     w.TotalCorrect,
			TotalTimeMinutes: w.TotalTimeMinutes,
			Accuracy:         w.Accuracy(),
		}
	}

	return &StreakSummary{
		CurrentStreak:    record.CurrentStreak,
		LongestStreak:    record.LongestStreak,
		LastPracticeDate: record.LastPracticeDate,
		PracticeDays:     record.PracticeDays,
		WeeklyStats:      weekly,
	}, nil
}
