package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"math"
	"sort"
)

// QuestionPool 题池协作方，生产实现为 repository.QuestionRepository
type QuestionPool interface {
	QueryEligible(subject, chapterKey string, excludeIDs []uint) ([]model.Question, error)
}

// SelectionResult Partial 表示在约束内凑不够请求数量，
// 返回较少的题优于返回远离能力带的题，由调用方决定是否致命。
type SelectionResult struct {
	Questions []model.Question `json:"questions"`
	Partial   bool             `json:"partial"`
}

// QuestionSelector 按当前能力估计选题：
// 难度落在 theta 容差带内的候选按Fisher信息量排序，题池稀疏时逐步放宽
// 容差带；章节覆盖约束避免单章超过配额（章节练习锁定单章时除外）；
// 末位以题目ID升序保证测试可复现。
type QuestionSelector struct {
	cfg       config.EngineConfig
	pool      QuestionPool
	estimator *AbilityEstimator
}

func NewQuestionSelector(cfg config.EngineConfig, pool QuestionPool, estimator *AbilityEstimator) *QuestionSelector {
	return &QuestionSelector{cfg: cfg, pool: pool, estimator: estimator}
}

// Select 返回至多 count 道题。题池为空时返回显式空结果而非错误。
func (s *QuestionSelector) Select(theta float64, subject, chapterKey string, excludeIDs []uint, count int) (*SelectionResult, error) {
	if count <= 0 {
		return &SelectionResult{Questions: []model.Question{}}, nil
	}

	candidates, err := s.pool.QueryEligible(subject, chapterKey, excludeIDs)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &SelectionResult{Questions: []model.Question{}, Partial: true}, nil
	}

	ranked := s.rank(candidates, theta)
	chapterPinned := chapterKey != ""

	// 带宽逐级放宽，优先于缩减数量
	var picked []model.Question
	for band := s.cfg.InitialBand; band <= s.cfg.MaxBand+1e-9; band += s.cfg.BandStep {
		inBand := withinBand(ranked, theta, band)
		picked = s.pick(inBand, count, chapterPinned)
		if len(picked) == count {
			return &SelectionResult{Questions: picked}, nil
		}
	}

	// 带宽到顶仍不足：放开章节配额，从全体候选补齐
	picked = s.pick(ranked, count, true)
	return &SelectionResult{
		Questions: picked,
		Partial:   len(picked) < count,
	}, nil
}

// rank 信息量降序，ID升序兜底
func (s *QuestionSelector) rank(candidates []model.Question, theta float64) []model.Question {
	ranked := make([]model.Question, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		fi := s.estimator.FisherInformation(theta, &ranked[i])
		fj := s.estimator.FisherInformation(theta, &ranked[j])
		if fi != fj {
			return fi > fj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func withinBand(ranked []model.Question, theta, band float64) []model.Question {
	var out []model.Question
	for _, q := range ranked {
		if math.Abs(q.DifficultyB-theta) <= band {
			out = append(out, q)
		}
	}
	return out
}

// pick 按序贪心，限制单章占比；chapterPinned 时不设章节配额
func (s *QuestionSelector) pick(ranked []model.Question, count int, chapterPinned bool) []model.Question {
	maxPerChapter := count
	if !chapterPinned {
		maxPerChapter = int(math.Ceil(float64(count) * s.cfg.MaxChapterShare))
		if maxPerChapter < 1 {
			maxPerChapter = 1
		}
	}

	perChapter := make(map[string]int)
	picked := make([]model.Question, 0, count)
	for _, q := range ranked {
		if len(picked) == count {
			break
		}
		if perChapter[q.ChapterKey] >= maxPerChapter {
			continue
		}
		perChapter[q.ChapterKey]++
		picked = append(picked, q)
	}
	return picked
}
