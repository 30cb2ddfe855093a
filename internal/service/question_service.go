package service

import (
	"fmt"
	"strconv"
	"strings"

	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
)

// QuestionService 题库维护，教师/管理员专用。引擎侧只读题库，
// 写入口集中在这里做3PL参数校验，杜绝非法参数进入题池。
type QuestionService struct {
	Repo *repository.QuestionRepository
}

func NewQuestionService(repo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{Repo: repo}
}

func (s *QuestionService) Create(q *model.Question) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	return s.Repo.Create(q)
}

func (s *QuestionService) Update(q *model.Question) error {
	existing, err := s.Repo.FindByID(q.ID)
	if err != nil {
		return err
	}
	if err := validateQuestion(q); err != nil {
		return err
	}

	existing.Subject = q.Subject
	existing.ChapterKey = q.ChapterKey
	existing.Type = q.Type
	existing.Stem = q.Stem
	existing.Options = q.Options
	existing.CorrectAnswer = q.CorrectAnswer
	existing.AnswerMin = q.AnswerMin
	existing.AnswerMax = q.AnswerMax
	existing.DiscriminationA = q.DiscriminationA
	existing.DifficultyB = q.DifficultyB
	existing.GuessingC = q.GuessingC
	existing.Enabled = q.Enabled
	return s.Repo.Update(existing)
}

// Delete 被历史会话引用的题目不允许删除（作答记录需要回溯），
// 改用禁用下线。
func (s *QuestionService) Delete(id uint) error {
	var refs int64
	err := s.Repo.DB.Model(&model.SessionQuestion{}).
		Where("question_id = ?", id).
		Count(&refs).Error
	if err != nil {
		return err
	}
	if refs > 0 {
		return util.ErrQuestionInUse
	}
	return s.Repo.Delete(id)
}

// Disable 下线题目：不再进入选题候选，历史作答记录不受影响
func (s *QuestionService) Disable(id uint) error {
	q, err := s.Repo.FindByID(id)
	if err != nil {
		return err
	}
	q.Enabled = false
	return s.Repo.Update(q)
}

func (s *QuestionService) GetByID(id uint) (*model.Question, error) {
	return s.Repo.FindByID(id)
}

func (s *QuestionService) List(subject, chapterKey string, page, limit int) ([]model.Question, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Repo.List(subject, chapterKey, page, limit)
}

func validateQuestion(q *model.Question) error {
	if q.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if !q.ParamsValid() {
		return util.ErrMalformedQuestion
	}

	switch q.Type {
	case model.SingleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("single choice question requires at least 2 options")
		}
		found := false
		for _, opt := range q.Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(q.CorrectAnswer)) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("correct answer must be one of the options")
		}
	case model.Numeric:
		if q.AnswerMin != nil && q.AnswerMax != nil {
			if *q.AnswerMin > *q.AnswerMax {
				return fmt.Errorf("answerMin must not exceed answerMax")
			}
		} else if _, err := strconv.ParseFloat(strings.TrimSpace(q.CorrectAnswer), 64); err != nil {
			return fmt.Errorf("numeric question requires a numeric correct answer or an answer range")
		}
	default:
		return fmt.Errorf("unsupported question type: %s", q.Type)
	}
	return nil
}
