package service

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"math"
)

// AbilityEstimator 基于三参数Logistic模型的单步能力更新。
// 纯函数实现，不做任何存储读写，便于独立测试。
type AbilityEstimator struct {
	cfg config.EngineConfig
}

func NewAbilityEstimator(cfg config.EngineConfig) *AbilityEstimator {
	return &AbilityEstimator{cfg: cfg}
}

// Probability 3PL答对概率：P = c + (1-c) / (1 + exp(-a(theta-b)))
func (e *AbilityEstimator) Probability(theta float64, q *model.Question) float64 {
	return q.GuessingC + (1-q.GuessingC)/(1+math.Exp(-q.DiscriminationA*(theta-q.DifficultyB)))
}

// FisherInformation 3PL信息函数，用于收缩标准误
func (e *AbilityEstimator) FisherInformation(theta float64, q *model.Question) float64 {
	p := e.Probability(theta, q)
	if p <= 0 || p >= 1 {
		return 0
	}
	ratio := (p - q.GuessingC) / (1 - q.GuessingC)
	return q.DiscriminationA * q.DiscriminationA * ratio * ratio * (1 - p) / p
}

// Update 单步贝叶斯式更新：残差 (结果-P) 乘以学习率、当前标准误与区分度。
// 标准误越大（作答越少）单步位移越大；错得"意外"（很容易的题答错）时
// 残差绝对值大，向下修正也大。
// 参数非法（a<=0 或 c 不在[0,1)）时拒绝更新，原估计原样返回并上抛
// 数据质量信号，绝不静默接受。
func (e *AbilityEstimator) Update(theta, se float64, q *model.Question, correct bool) (float64, float64, error) {
	if !q.ParamsValid() {
		return theta, se, util.ErrMalformedQuestion
	}

	p := e.Probability(theta, q)
	outcome := 0.0
	if correct {
		outcome = 1.0
	}

	step := e.cfg.LearningRate * se * q.DiscriminationA * (outcome - p)
	newTheta := clamp(theta+step, -e.cfg.ThetaLimit, e.cfg.ThetaLimit)

	// 信息量累加收缩标准误，下限防止少量作答即过度自信
	info := e.FisherInformation(newTheta, q)
	newSE := 1 / math.Sqrt(1/(se*se)+info)
	if newSE < e.cfg.SEFloor {
		newSE = e.cfg.SEFloor
	}
	if newSE > se {
		newSE = se
	}

	return newTheta, newSE, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
