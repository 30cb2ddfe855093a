package repository

import (
	"exam_prep_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	if len(ids) == 0 {
		return qs, nil
	}
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

// QueryEligible 题池查询：启用的指定学科题目，可选章节过滤，排除给定ID。
// 按ID升序返回，保证选题的确定性尾序。
func (r *QuestionRepository) QueryEligible(subject, chapterKey string, excludeIDs []uint) ([]model.Question, error) {
	query := r.DB.Where("subject = ? AND enabled = ?", subject, true)
	if chapterKey != "" {
		query = query.Where("chapter_key = ?", chapterKey)
	}
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var qs []model.Question
	err := query.Order("id ASC").Find(&qs).Error
	return qs, err
}

// RecentQuestionIDs 用户近期会话中出现过的题目ID，用作选题排除集
func (r *QuestionRepository) RecentQuestionIDs(userID uint, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.SessionQuestion{}).
		Joins("JOIN practice_sessions ON practice_sessions.id = session_questions.session_ref").
		Where("practice_sessions.user_id = ? AND session_questions.created_at >= ?", userID, since).
		Distinct().
		Pluck("session_questions.question_id", &ids).Error
	return ids, err
}

func (r *QuestionRepository) List(subject, chapterKey string, page, limit int) ([]model.Question, int64, error) {
	query := r.DB.Model(&model.Question{})
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if chapterKey != "" {
		query = query.Where("chapter_key = ?", chapterKey)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var qs []model.Question
	offset := (page - 1) * limit
	err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&qs).Error
	return qs, total, err
}
