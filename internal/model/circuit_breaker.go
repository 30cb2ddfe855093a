package model

import "time"

// CircuitBreakerState 按 (用户, 依赖类别) 维护的熔断器状态。
// FailureDates 双重上界：仅保留最近7天且不超过1000条，每次写入时执行，
// 最旧条目先被淘汰，故障风暴期间数组不会无界增长。
// swagger:model CircuitBreakerState
type CircuitBreakerState struct {
	BaseModel
	UserID     uint   `gorm:"uniqueIndex:idx_user_dependency;type:bigint unsigned;not null" json:"userId"`
	Dependency string `gorm:"uniqueIndex:idx_user_dependency;size:50;not null" json:"dependency"`

	ConsecutiveFailures int        `gorm:"not null;default:0" json:"consecutiveFailures"`
	FailureDates        TimeList   `gorm:"type:json" json:"failureDates"`
	IsOpen              bool       `gorm:"default:false" json:"isOpen"`
	OpenedAt            *time.Time `json:"openedAt,omitempty"`
}

func (CircuitBreakerState) TableName() string {
	return "circuit_breaker_states"
}

// RecordFailure 追加一次失败并应用双重上界，达到阈值时打开熔断。
// 已打开时继续失败会刷新 OpenedAt，半开探测窗口随之后移。
func (s *CircuitBreakerState) RecordFailure(now time.Time, windowDays, maxDates, threshold int) {
	s.FailureDates = append(s.FailureDates, now)
	s.FailureDates = PruneFailureDates(s.FailureDates, now, windowDays, maxDates)
	s.ConsecutiveFailures++
	if s.ConsecutiveFailures >= threshold {
		s.IsOpen = true
		opened := now
		s.OpenedAt = &opened
	}
}

// RecordSuccess 无条件复位并闭合熔断
func (s *CircuitBreakerState) RecordSuccess() {
	s.ConsecutiveFailures = 0
	s.FailureDates = TimeList{}
	s.IsOpen = false
	s.OpenedAt = nil
}

// PruneFailureDates 先淘汰窗口外的时间戳，仍超限则只保留最近 maxDates 条。
// 输入按时间升序，输出保持升序。
func PruneFailureDates(dates TimeList, now time.Time, windowDays, maxDates int) TimeList {
	cutoff := now.AddDate(0, 0, -windowDays)
	start := 0
	for start < len(dates) && dates[start].Before(cutoff) {
		start++
	}
	pruned := dates[start:]
	if len(pruned) > maxDates {
		pruned = pruned[len(pruned)-maxDates:]
	}
	out := make(TimeList, len(pruned))
	copy(out, pruned)
	return out
}
