package repository

import (
	"exam_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(tx *gorm.DB, session *model.PracticeSession) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(session).Error
}

func (r *SessionRepository) FindBySessionID(sessionID string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	if err := r.DB.Where("session_id = ?", sessionID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindBySessionIDForUpdate 行锁读取，供生命周期变更事务使用
func (r *SessionRepository) FindBySessionIDForUpdate(tx *gorm.DB, sessionID string) (*model.PracticeSession, error) {
	var s model.PracticeSession
	err := lockForUpdate(tx).
		Where("session_id = ?", sessionID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActive 用户某类型的进行中会话。理论上至多一条；若因历史数据出现
// 多条，按启动时间倒序返回全部，由服务层强制废弃较旧者。
func (r *SessionRepository) FindActive(userID uint, sessionType model.SessionType) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	err := r.DB.Where("user_id = ? AND session_type = ? AND status IN ?",
		userID, sessionType, []model.SessionStatus{model.SessionInProgress, model.SessionAutoSubmitting}).
		Order("started_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) Save(tx *gorm.DB, session *model.PracticeSession) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(session).Error
}

func (r *SessionRepository) CreateQuestions(tx *gorm.DB, questions []model.SessionQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(&questions).Error
}

func (r *SessionRepository) GetQuestions(sessionRef uint) ([]model.SessionQuestion, error) {
	var questions []model.SessionQuestion
	err := r.DB.Where("session_ref = ?", sessionRef).Order("position ASC").Find(&questions).Error
	return questions, err
}

func (r *SessionRepository) GetQuestionAt(tx *gorm.DB, sessionRef uint, position int) (*model.SessionQuestion, error) {
	if tx == nil {
		tx = r.DB
	}
	var sq model.SessionQuestion
	err := lockForUpdate(tx).
		Where("session_ref = ? AND position = ?", sessionRef, position).
		First(&sq).Error
	if err != nil {
		return nil, err
	}
	return &sq, nil
}

func (r *SessionRepository) SaveQuestion(tx *gorm.DB, sq *model.SessionQuestion) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Save(sq).Error
}

// FindExpiredMockTests 已超时仍在进行中的模考，供后台自动交卷任务扫描
func (r *SessionRepository) FindExpiredMockTests(now time.Time) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	err := r.DB.Where("session_type = ? AND status = ? AND started_at <= ?",
		model.MockTest, model.SessionInProgress, now.Add(-time.Second)).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	expired := sessions[:0]
	for _, s := range sessions {
		if s.RemainingSeconds(now) == 0 {
			expired = append(expired, s)
		}
	}
	return expired, nil
}

func (r *SessionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(fn)
}
