package service

import (
	"fmt"
	"testing"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"

	"github.com/stretchr/testify/require"
)

type stubPool struct {
	questions []model.Question
	err       error
}

func (p *stubPool) QueryEligible(subject, chapterKey string, excludeIDs []uint) ([]model.Question, error) {
	if p.err != nil {
		return nil, p.err
	}
	excluded := make(map[uint]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []model.Question
	for _, q := range p.questions {
		if excluded[q.ID] {
			continue
		}
		if chapterKey != "" && q.ChapterKey != chapterKey {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func poolQuestion(id uint, chapter string, difficulty float64) model.Question {
	q := model.Question{
		Subject:         "math",
		ChapterKey:      chapter,
		Type:            model.SingleChoice,
		DiscriminationA: 1.0,
		DifficultyB:     difficulty,
		GuessingC:       0.2,
		Enabled:         true,
	}
	q.ID = id
	return q
}

func newTestSelector(pool QuestionPool) *QuestionSelector {
	cfg := config.DefaultEngineConfig()
	return NewQuestionSelector(cfg, pool, NewAbilityEstimator(cfg))
}

func TestSelectEmptyPoolReturnsExplicitEmptyResult(t *testing.T) {
	s := newTestSelector(&stubPool{})

	result, err := s.Select(0, "math", "", nil, 10)
	require.NoError(t, err)
	require.Empty(t, result.Questions)
	require.True(t, result.Partial)
}

func TestSelectPrefersQuestionsNearTheta(t *testing.T) {
	pool := &stubPool{questions: []model.Question{
		poolQuestion(1, "ch1", 0.1),
		poolQuestion(2, "ch2", -0.2),
		poolQuestion(3, "ch3", 2.8),
		poolQuestion(4, "ch4", -2.9),
		poolQuestion(5, "ch5", 0.3),
	}}
	s := newTestSelector(pool)

	result, err := s.Select(0, "math", "", nil, 3)
	require.NoError(t, err)
	require.Len(t, result.Questions, 3)
	require.False(t, result.Partial)

	// 初始带宽±0.5内已有3题，远端难度不应入选
	for _, q := range result.Questions {
		require.InDelta(t, 0, q.DifficultyB, 0.5)
	}
}

func TestSelectWidensBandBeforeReducingCount(t *testing.T) {
	// 近带只有2题，带宽放宽后可凑足4题
	pool := &stubPool{questions: []model.Question{
		poolQuestion(1, "ch1", 0.2),
		poolQuestion(2, "ch2", -0.3),
		poolQuestion(3, "ch3", 1.4),
		poolQuestion(4, "ch4", -1.8),
	}}
	s := newTestSelector(pool)

	result, err := s.Select(0, "math", "", nil, 4)
	require.NoError(t, err)
	require.Len(t, result.Questions, 4)
	require.False(t, result.Partial)
}

func TestSelectPartialWhenPoolExhausted(t *testing.T) {
	pool := &stubPool{questions: []model.Question{
		poolQuestion(1, "ch1", 0.0),
		poolQuestion(2, "ch2", 0.5),
	}}
	s := newTestSelector(pool)

	result, err := s.Select(0, "math", "", nil, 10)
	require.NoError(t, err)
	require.Len(t, result.Questions, 2)
	require.True(t, result.Partial)
}

func TestSelectChapterShareCap(t *testing.T) {
	// ch1 有大量贴近 theta 的题，其他章节略远：配额应阻止 ch1 垄断
	var questions []model.Question
	for i := uint(1); i <= 10; i++ {
		questions = append(questions, poolQuestion(i, "ch1", 0.01*float64(i)))
	}
	for i := uint(11); i <= 20; i++ {
		questions = append(questions, poolQuestion(i, fmt.Sprintf("ch%d", i), 0.4))
	}
	s := newTestSelector(&stubPool{questions: questions})

	result, err := s.Select(0, "math", "", nil, 10)
	require.NoError(t, err)
	require.Len(t, result.Questions, 10)

	perChapter := map[string]int{}
	for _, q := range result.Questions {
		perChapter[q.ChapterKey]++
	}
	// ceil(10 * 0.4) = 4
	require.LessOrEqual(t, perChapter["ch1"], 4)
}

func TestSelectChapterCapRelaxedWhenPoolIsConcentrated(t *testing.T) {
	// 全部题目集中在单章：宁可破配额也要凑足数量
	var questions []model.Question
	for i := uint(1); i <= 10; i++ {
		questions = append(questions, poolQuestion(i, "ch1", 0.1*float64(i)))
	}
	s := newTestSelector(&stubPool{questions: questions})

	result, err := s.Select(0, "math", "", nil, 6)
	require.NoError(t, err)
	require.Len(t, result.Questions, 6)
}

func TestSelectPinnedChapterIgnoresShareCap(t *testing.T) {
	var questions []model.Question
	for i := uint(1); i <= 20; i++ {
		questions = append(questions, poolQuestion(i, "ch1", 0.02*float64(i)))
	}
	s := newTestSelector(&stubPool{questions: questions})

	result, err := s.Select(0, "math", "ch1", nil, 15)
	require.NoError(t, err)
	require.Len(t, result.Questions, 15)
	for _, q := range result.Questions {
		require.Equal(t, "ch1", q.ChapterKey)
	}
}

func TestSelectDeterministicTieBreak(t *testing.T) {
	// 参数完全相同的题目按ID升序入选
	pool := &stubPool{questions: []model.Question{
		poolQuestion(7, "ch1", 0.0),
		poolQuestion(3, "ch2", 0.0),
		poolQuestion(5, "ch3", 0.0),
		poolQuestion(1, "ch4", 0.0),
	}}
	s := newTestSelector(pool)

	first, err := s.Select(0, "math", "", nil, 3)
	require.NoError(t, err)
	second, err := s.Select(0, "math", "", nil, 3)
	require.NoError(t, err)

	require.Equal(t, first.Questions, second.Questions)
	require.Equal(t, uint(1), first.Questions[0].ID)
	require.Equal(t, uint(3), first.Questions[1].ID)
	require.Equal(t, uint(5), first.Questions[2].ID)
}

func TestSelectExcludesRecentQuestions(t *testing.T) {
	pool := &stubPool{questions: []model.Question{
		poolQuestion(1, "ch1", 0.0),
		poolQuestion(2, "ch2", 0.1),
		poolQuestion(3, "ch3", 0.2),
	}}
	s := newTestSelector(pool)

	result, err := s.Select(0, "math", "", []uint{1, 2}, 3)
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	require.Equal(t, uint(3), result.Questions[0].ID)
	require.True(t, result.Partial)
}
