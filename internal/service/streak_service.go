package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"time"

	"gorm.io/gorm"
)

const dateKeyLayout = "2006-01-02"

// StreakService 会话完成事件的观察者：维护连续练习天数与按周聚合的
// 有界统计数组。调用方必须传本次会话的增量，不是累计值。
type StreakService struct {
	Repo *repository.StreakRepository
	cfg  config.EngineConfig
}

func NewStreakService(repo *repository.StreakRepository, cfg config.EngineConfig) *StreakService {
	return &StreakService{Repo: repo, cfg: cfg}
}

// OnSessionCompleted 在会话完成时调用。行锁内读改写，
// 同一用户并发完成不会互相覆盖。
func (s *StreakService) OnSessionCompleted(userID uint, date time.Time, questionsAnswered, questionsCorrect, timeMinutes int) error {
	return s.Repo.Transaction(func(tx *gorm.DB) error {
		record, err := s.Repo.FindOrCreate(tx, userID)
		if err != nil {
			return err
		}
		ApplyCompletion(record, date, questionsAnswered, questionsCorrect, timeMinutes, s.cfg)
		record.Version++
		return s.Repo.Save(tx, record)
	})
}

// ApplyCompletion 纯更新逻辑，独立于存储便于测试。
// 连续日历日扩展 currentStreak，隔天归1；weeklyStats 以周日键就地更新，
// 新周追加后裁剪到上界，最旧先淘汰。累计全为整数，无浮点漂移。
func ApplyCompletion(record *model.StreakRecord, date time.Time, answered, correct, timeMinutes int, cfg config.EngineConfig) {
	day := date.UTC().Format(dateKeyLayout)

	newDay := record.LastPracticeDate != day
	if newDay {
		if record.LastPracticeDate == previousDay(day) {
			record.CurrentStreak++
		} else {
			record.CurrentStreak = 1
		}
		if record.CurrentStreak > record.LongestStreak {
			record.LongestStreak = record.CurrentStreak
		}
		if !containsDay(record.PracticeDays, day) {
			record.PracticeDays = append(record.PracticeDays, day)
			if max := cfg.MaxPracticeDays; max > 0 && len(record.PracticeDays) > max {
				record.PracticeDays = record.PracticeDays[len(record.PracticeDays)-max:]
			}
		}
		record.LastPracticeDate = day
	}

	weekEnd := WeekEnd(date)
	idx := -1
	for i := range record.WeeklyStats {
		if record.WeeklyStats[i].WeekEnd == weekEnd {
			idx = i
			break
		}
	}

	if idx >= 0 {
		stat := &record.WeeklyStats[idx]
		if newDay {
			stat.DaysPracticed++
		}
		stat.TotalQuizzes++
		stat.TotalQuestions += answered
		stat.TotalCorrect += correct
		stat.TotalTimeMinutes += timeMinutes
	} else {
		record.WeeklyStats = append(record.WeeklyStats, model.WeeklyStat{
			WeekEnd:          weekEnd,
			DaysPracticed:    1,
			TotalQuizzes:     1,
			TotalQuestions:   answered,
			TotalCorrect:     correct,
			TotalTimeMinutes: timeMinutes,
		})
		if max := cfg.MaxWeeklyStats; max > 0 && len(record.WeeklyStats) > max {
			record.WeeklyStats = record.WeeklyStats[len(record.WeeklyStats)-max:]
		}
	}
}

// WeekEnd 该日期所属周的周日日期键；周日归属当日
func WeekEnd(date time.Time) string {
	d := date.UTC()
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset).Format(dateKeyLayout)
}

func previousDay(day string) string {
	t, err := time.Parse(dateKeyLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(dateKeyLayout)
}

func containsDay(days model.StringList, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
