package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionType string

const (
	DailyQuiz       SessionType = "daily_quiz"
	ChapterPractice SessionType = "chapter_practice"
	MockTest        SessionType = "mock_test"
)

type SessionStatus string

const (
	SessionInProgress     SessionStatus = "in_progress"
	SessionAutoSubmitting SessionStatus = "auto_submitting"
	SessionCompleted      SessionStatus = "completed"
	SessionAbandoned      SessionStatus = "abandoned"
)

// PracticeSession 一次练习/测验/模考会话。
// (user_id, session_type, active) 唯一索引保证同类型同时至多一个
// in_progress 会话：active 仅在进行中为 TRUE，终态置 NULL 以避开唯一约束，
// 并发 start 的竞争在写入时即被关闭。
// swagger:model PracticeSession
type PracticeSession struct {
	BaseModel
	SessionID   string      `gorm:"size:36;uniqueIndex;not null" json:"sessionId"`
	UserID      uint        `gorm:"index;uniqueIndex:idx_user_type_active;type:bigint unsigned;not null" json:"userId"`
	SessionType SessionType `gorm:"size:20;uniqueIndex:idx_user_type_active;not null" json:"sessionType"`
	Active      *bool       `gorm:"uniqueIndex:idx_user_type_active" json:"-"`

	Subject    string        `gorm:"size:100;not null" json:"subject"`
	ChapterKey string        `gorm:"size:100" json:"chapterKey,omitempty"`
	Status     SessionStatus `gorm:"size:20;index;not null" json:"status"`

	StartedAt   time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// 模考限时，其余类型为0。剩余时间一律由 StartedAt+Duration-now 重算，
	// 不信任客户端计数器。
	DurationSeconds int `json:"durationSeconds,omitempty"`

	TotalQuestions   int  `gorm:"not null" json:"totalQuestions"`
	AnsweredCount    int  `gorm:"not null;default:0" json:"answeredCount"`
	CorrectCount     int  `gorm:"not null;default:0" json:"correctCount"`
	TotalTimeSeconds int  `gorm:"not null;default:0" json:"totalTimeSeconds"`
	Partial          bool `gorm:"default:false" json:"partial"` // 选题不足请求数量

	Version int `gorm:"not null;default:0" json:"-"` // 乐观锁
}

func (PracticeSession) TableName() string {
	return "practice_sessions"
}

func (s *PracticeSession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.SessionID == "" {
		s.SessionID = uuid.New().String()
	}
	return
}

// RemainingSeconds 模考剩余秒数，非模考返回0
func (s *PracticeSession) RemainingSeconds(now time.Time) int {
	if s.SessionType != MockTest || s.DurationSeconds <= 0 {
		return 0
	}
	remaining := s.DurationSeconds - int(now.Sub(s.StartedAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Terminal 会话是否已进入终态（终态后只读）
func (s *PracticeSession) Terminal() bool {
	return s.Status == SessionCompleted || s.Status == SessionAbandoned
}

// SessionQuestion 会话内按位置排列的试题及作答记录。
// 同一位置的首个答案具有权威性，重复提交被拒绝。
// swagger:model SessionQuestion
type SessionQuestion struct {
	BaseModel
	SessionRef uint `gorm:"uniqueIndex:idx_session_position;type:bigint unsigned;not null" json:"-"`
	QuestionID uint `gorm:"index;type:bigint unsigned;not null" json:"questionId"`
	Position   int  `gorm:"uniqueIndex:idx_session_position;not null" json:"position"`

	Answered         bool   `gorm:"default:false" json:"answered"`
	StudentAnswer    string `gorm:"size:255" json:"studentAnswer,omitempty"`
	IsCorrect        bool   `gorm:"default:false" json:"isCorrect"`
	TimeTakenSeconds int    `gorm:"default:0" json:"timeTakenSeconds"`

	// 模考"标记待查"与判分完全正交
	MarkedForReview bool `gorm:"default:false" json:"markedForReview"`
}

func (SessionQuestion) TableName() string {
	return "session_questions"
}
