package model

import (
	"database/sql/driver"
	"encoding/json"
)

// WeeklyStat 以周日为界的周统计条目。累计字段全部为整数，
// 正确率在读取时推导，长历史不会产生浮点漂移。
type WeeklyStat struct {
	WeekEnd          string `json:"weekEnd"` // 周日日期键 YYYY-MM-DD
	DaysPracticed    int    `json:"daysPracticed"`
	TotalQuizzes     int    `json:"totalQuizzes"`
	TotalQuestions   int    `json:"totalQuestions"`
	TotalCorrect     int    `json:"totalCorrect"`
	TotalTimeMinutes int    `json:"totalTimeMinutes"`
}

// Accuracy 推导正确率百分比
func (w WeeklyStat) Accuracy() float64 {
	if w.TotalQuestions == 0 {
		return 0
	}
	return float64(w.TotalCorrect) * 100 / float64(w.TotalQuestions)
}

// WeeklyStatList JSON列，按 WeekEnd 升序，长度上界由服务层裁剪
type WeeklyStatList []WeeklyStat

func (l WeeklyStatList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *WeeklyStatList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// StreakRecord 每用户一条的练习连续性与周统计记录。
// weeklyStats 以 weekEnd 为键就地更新，超过上界时淘汰最旧一周；
// practiceDays 为滚动窗口内的日期键集合。
// swagger:model StreakRecord
type StreakRecord struct {
	BaseModel
	UserID           uint           `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"userId"`
	CurrentStreak    int            `gorm:"not null;default:0" json:"currentStreak"`
	LongestStreak    int            `gorm:"not null;default:0" json:"longestStreak"`
	LastPracticeDate string         `gorm:"size:10" json:"lastPracticeDate"` // YYYY-MM-DD
	PracticeDays     StringList     `gorm:"type:json" json:"practiceDays"`
	WeeklyStats      WeeklyStatList `gorm:"type:json" json:"weeklyStats"`

	Version int `gorm:"not null;default:0" json:"-"` // 乐观锁
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
