package service

import (
	"math"
	"testing"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"

	"github.com/stretchr/testify/require"
)

func testQuestion(a, b, c float64) *model.Question {
	return &model.Question{
		DiscriminationA: a,
		DifficultyB:     b,
		GuessingC:       c,
	}
}

func TestProbability(t *testing.T) {
	e := NewAbilityEstimator(config.DefaultEngineConfig())

	// theta=b 时 logistic 部分为 0.5
	q := testQuestion(1.2, 0, 0.25)
	p := e.Probability(0, q)
	require.InDelta(t, 0.625, p, 1e-9)

	// 概率始终落在 (c, 1)
	for _, theta := range []float64{-4, -2, 0, 2, 4} {
		p := e.Probability(theta, q)
		require.Greater(t, p, q.GuessingC)
		require.Less(t, p, 1.0)
	}

	// 能力越高答对概率越高
	require.Greater(t, e.Probability(1, q), e.Probability(-1, q))
}

func TestUpdateMovesTowardOutcome(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := NewAbilityEstimator(cfg)
	q := testQuestion(1.2, 0, 0.25)

	// 答对向上修正：step = 0.4 * 1.0 * 1.2 * (1 - 0.625) = 0.18
	theta, se, err := e.Update(0, 1.0, q, true)
	require.NoError(t, err)
	require.InDelta(t, 0.18, theta, 1e-9)
	require.Less(t, se, 1.0)

	// 答错向下修正
	theta, _, err = e.Update(0, 1.0, q, false)
	require.NoError(t, err)
	require.Less(t, theta, 0.0)
}

func TestUpdateSurprisingWrongAnswerMovesMore(t *testing.T) {
	e := NewAbilityEstimator(config.DefaultEngineConfig())

	easy := testQuestion(1.2, -2, 0.1) // 对该用户很容易的题
	hard := testQuestion(1.2, 2, 0.1)  // 本来就难的题

	thetaAfterEasyMiss, _, err := e.Update(0, 1.0, easy, false)
	require.NoError(t, err)
	thetaAfterHardMiss, _, err := e.Update(0, 1.0, hard, false)
	require.NoError(t, err)

	// 易题答错的意外程度更大，向下修正也更大
	require.Less(t, thetaAfterEasyMiss, thetaAfterHardMiss)
}

func TestUpdateClampsTheta(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := NewAbilityEstimator(cfg)
	q := testQuestion(3.0, -4, 0)

	theta, _, err := e.Update(3.9, 1.0, q, true)
	require.NoError(t, err)
	require.LessOrEqual(t, theta, cfg.ThetaLimit)

	theta, _, err = e.Update(-3.9, 1.0, testQuestion(3.0, 4, 0), false)
	require.NoError(t, err)
	require.GreaterOrEqual(t, theta, -cfg.ThetaLimit)
}

func TestUpdateStandardErrorShrinksWithFloor(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	e := NewAbilityEstimator(cfg)
	q := testQuestion(2.0, 0, 0)

	theta, se := 0.0, 1.0
	var err error
	for i := 0; i < 200; i++ {
		theta, se, err = e.Update(theta, se, q, i%2 == 0)
		require.NoError(t, err)
	}

	// 大量作答后标准误收敛到下限，不会为0
	require.InDelta(t, cfg.SEFloor, se, 1e-9)
	require.False(t, math.IsNaN(theta))
}

func TestUpdateStandardErrorNeverGrows(t *testing.T) {
	e := NewAbilityEstimator(config.DefaultEngineConfig())
	q := testQuestion(0.5, 3, 0.3)

	_, se, err := e.Update(0, 0.6, q, true)
	require.NoError(t, err)
	require.LessOrEqual(t, se, 0.6)
}

func TestUpdateRejectsMalformedParams(t *testing.T) {
	e := NewAbilityEstimator(config.DefaultEngineConfig())

	cases := []*model.Question{
		testQuestion(0, 0, 0.25),    // a = 0
		testQuestion(-1.2, 0, 0.25), // a < 0
		testQuestion(1.2, 0, 1.0),   // c = 1
		testQuestion(1.2, 0, -0.1),  // c < 0
	}
	for _, q := range cases {
		theta, se, err := e.Update(0.5, 0.8, q, true)
		require.ErrorIs(t, err, util.ErrMalformedQuestion)
		// 原估计原样返回
		require.Equal(t, 0.5, theta)
		require.Equal(t, 0.8, se)
	}
}
