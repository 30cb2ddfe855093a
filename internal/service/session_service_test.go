package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type sessionTestEnv struct {
	db          *gorm.DB
	cfg         config.EngineConfig
	questions   *repository.QuestionRepository
	sessions    *repository.SessionRepository
	ability     *repository.AbilityProfileRepository
	breakerRepo *repository.CircuitBreakerRepository
	streakRepo  *repository.StreakRepository
	breaker     *CircuitBreakerService
	streak      *StreakService
	svc         *SessionService
}

func newSessionTestEnv(t *testing.T, mutate func(*config.EngineConfig)) *sessionTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Question{},
		&model.AbilityProfile{},
		&model.PracticeSession{},
		&model.SessionQuestion{},
		&model.CircuitBreakerState{},
		&model.StreakRecord{},
	))

	cfg := config.DefaultEngineConfig()
	cfg.DailyQuizQuestions = 3
	cfg.ChapterPracticeQuestions = 3
	cfg.MockTestQuestions = 3
	if mutate != nil {
		mutate(&cfg)
	}

	env := &sessionTestEnv{
		db:          db,
		cfg:         cfg,
		questions:   repository.NewQuestionRepository(db),
		sessions:    repository.NewSessionRepository(db),
		ability:     repository.NewAbilityProfileRepository(db),
		breakerRepo: repository.NewCircuitBreakerRepository(db),
		streakRepo:  repository.NewStreakRepository(db),
	}
	estimator := NewAbilityEstimator(cfg)
	selector := NewQuestionSelector(cfg, env.questions, estimator)
	env.breaker = NewCircuitBreakerService(env.breakerRepo, cfg)
	env.streak = NewStreakService(env.streakRepo, cfg)
	env.svc = NewSessionService(cfg, env.sessions, env.questions, env.ability,
		selector, estimator, env.breaker, env.streak, nil)
	return env
}

func (env *sessionTestEnv) seedQuestions(t *testing.T, n int, subject, chapter string) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := &model.Question{
			Subject:         subject,
			ChapterKey:      chapter,
			Type:            model.SingleChoice,
			Stem:            fmt.Sprintf("question %d", i+1),
			Options:         model.StringList{"A", "B", "C", "D"},
			CorrectAnswer:   "A",
			DiscriminationA: 1.2,
			DifficultyB:     0.1 * float64(i),
			GuessingC:       0.25,
			Enabled:         true,
		}
		require.NoError(t, env.questions.Create(q))
	}
}

func TestStartSessionCreatesQuestionsInOrder(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	require.Equal(t, model.SessionInProgress, detail.Session.Status)
	require.NotEmpty(t, detail.Session.SessionID)
	require.False(t, detail.Session.Partial)
	require.Equal(t, 3, detail.Session.TotalQuestions)
	require.Len(t, detail.Questions, 3)
	for i, sq := range detail.Questions {
		require.Equal(t, i+1, sq.Position)
		require.False(t, sq.Answered)
	}
	require.Equal(t, 1, detail.CurrentPosition)
	require.False(t, detail.Resumed)
}

func TestStartSessionResumesExisting(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	first, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	second, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	require.Equal(t, first.Session.SessionID, second.Session.SessionID)
	require.True(t, second.Resumed)

	// 不同类型互不阻塞
	mock, err := env.svc.StartSession(context.Background(), 1, model.MockTest, "math", "")
	require.NoError(t, err)
	require.NotEqual(t, first.Session.SessionID, mock.Session.SessionID)
}

func TestStartSessionConcurrentStartsShareOneSession(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	// 并发 start：无论交错顺序，同一 (用户, 类型) 只允许一条进行中会话，
	// 撞唯一索引的一方转为恢复，所有调用方拿到同一个 sessionId
	const workers = 8
	var wg sync.WaitGroup
	sessionIDs := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
			if err != nil {
				errs[i] = err
				return
			}
			sessionIDs[i] = detail.Session.SessionID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, sessionIDs[0], sessionIDs[i])
	}

	var inProgress int64
	require.NoError(t, env.db.Model(&model.PracticeSession{}).
		Where("user_id = ? AND session_type = ? AND status = ?", 1, model.DailyQuiz, model.SessionInProgress).
		Count(&inProgress).Error)
	require.EqualValues(t, 1, inProgress)
}

func TestStartSessionPartialWhenPoolSparse(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 2, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	require.True(t, detail.Session.Partial)
	require.Equal(t, 2, detail.Session.TotalQuestions)
}

func TestStartSessionNoEligibleQuestions(t *testing.T) {
	env := newSessionTestEnv(t, nil)

	_, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.ErrorIs(t, err, util.ErrNoEligibleQuestions)
}

func TestStartSessionChapterPracticeRequiresChapter(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	_, err := env.svc.StartSession(context.Background(), 1, model.ChapterPractice, "math", "")
	require.ErrorIs(t, err, util.ErrInvalidSessionType)

	detail, err := env.svc.StartSession(context.Background(), 1, model.ChapterPractice, "math", "algebra")
	require.NoError(t, err)
	require.Equal(t, "algebra", detail.Session.ChapterKey)
}

func TestSubmitAnswerUpdatesSessionAndAbility(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	sessionID := detail.Session.SessionID

	result, err := env.svc.SubmitAnswer(context.Background(), 1, sessionID, 1, "A", 30)
	require.NoError(t, err)
	require.True(t, result.IsCorrect)
	require.True(t, result.AbilityUpdated)
	require.Greater(t, result.Theta, 0.0)
	require.Less(t, result.StandardError, 1.0)

	result, err = env.svc.SubmitAnswer(context.Background(), 1, sessionID, 2, "B", 20)
	require.NoError(t, err)
	require.False(t, result.IsCorrect)

	session, err := env.sessions.FindBySessionID(sessionID)
	require.NoError(t, err)
	require.Equal(t, 2, session.AnsweredCount)
	require.Equal(t, 1, session.CorrectCount)
	require.Equal(t, 50, session.TotalTimeSeconds)

	profile, err := env.ability.FindByUserAndSubject(1, "math")
	require.NoError(t, err)
	require.Equal(t, 2, profile.ResponseCount)
}

func TestSubmitAnswerRejectsDuplicatePosition(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	_, err = env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 1, "A", 10)
	require.NoError(t, err)

	// 首答保持权威
	_, err = env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 1, "B", 10)
	require.ErrorIs(t, err, util.ErrPositionAnswered)

	session, err := env.sessions.FindBySessionID(detail.Session.SessionID)
	require.NoError(t, err)
	require.Equal(t, 1, session.AnsweredCount)
	require.Equal(t, 1, session.CorrectCount)
}

func TestSubmitAnswerValidatesPositionAndOwner(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	_, err = env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 0, "A", 10)
	require.ErrorIs(t, err, util.ErrInvalidPosition)

	_, err = env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 99, "A", 10)
	require.ErrorIs(t, err, util.ErrInvalidPosition)

	_, err = env.svc.SubmitAnswer(context.Background(), 2, detail.Session.SessionID, 1, "A", 10)
	require.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.svc.SubmitAnswer(context.Background(), 1, "no-such-session", 1, "A", 10)
	require.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSubmitAnswerMalformedParamsSkipsAbilityUpdate(t *testing.T) {
	env := newSessionTestEnv(t, nil)

	// 区分度非法的题：判分照常，能力估计不动
	q := &model.Question{
		Subject:         "math",
		ChapterKey:      "algebra",
		Type:            model.SingleChoice,
		Options:         model.StringList{"A", "B"},
		CorrectAnswer:   "A",
		DiscriminationA: 0,
		GuessingC:       0.25,
		Enabled:         true,
	}
	require.NoError(t, env.questions.Create(q))

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	result, err := env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 1, "A", 10)
	require.NoError(t, err)
	require.True(t, result.IsCorrect)
	require.False(t, result.AbilityUpdated)
	require.Equal(t, 0.0, result.Theta)
	require.Equal(t, 1.0, result.StandardError)
}

func TestCompleteSessionSummaryAndStreak(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	sessionID := detail.Session.SessionID

	_, err = env.svc.SubmitAnswer(context.Background(), 1, sessionID, 1, "A", 30)
	require.NoError(t, err)
	_, err = env.svc.SubmitAnswer(context.Background(), 1, sessionID, 2, "B", 30)
	require.NoError(t, err)

	summary, err := env.svc.CompleteSession(context.Background(), 1, sessionID)
	require.NoError(t, err)

	// 未答题不计入正确率分母，但计入得分率分母
	require.Equal(t, 3, summary.TotalQuestions)
	require.Equal(t, 2, summary.AnsweredCount)
	require.Equal(t, 1, summary.UnansweredCount)
	require.InDelta(t, 0.5, summary.AccuracyAnswered, 1e-9)
	require.InDelta(t, 1.0/3.0, summary.ScoreRatio, 1e-9)

	// 完成事件驱动连续练习统计
	record, err := env.streakRepo.Find(1)
	require.NoError(t, err)
	require.Equal(t, 1, record.CurrentStreak)
	require.Len(t, record.WeeklyStats, 1)
	require.Equal(t, 2, record.WeeklyStats[0].TotalQuestions)
	require.Equal(t, 1, record.WeeklyStats[0].TotalCorrect)

	// 终态后不可重复交卷，也不可继续作答
	_, err = env.svc.CompleteSession(context.Background(), 1, sessionID)
	require.ErrorIs(t, err, util.ErrSessionNotActive)
	_, err = env.svc.SubmitAnswer(context.Background(), 1, sessionID, 3, "A", 10)
	require.ErrorIs(t, err, util.ErrSessionNotActive)

	// 槽位释放，可开启新会话
	next, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	require.NotEqual(t, sessionID, next.Session.SessionID)
}

func TestAbandonSessionSkipsStreak(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.AbandonSession(context.Background(), 1, detail.Session.SessionID))

	// 放弃不产生练习统计
	_, err = env.streakRepo.Find(1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	session, err := env.sessions.FindBySessionID(detail.Session.SessionID)
	require.NoError(t, err)
	require.Equal(t, model.SessionAbandoned, session.Status)
	require.Nil(t, session.Active)
}

func TestMarkForReviewMockTestOnly(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	quiz, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	err = env.svc.MarkForReview(context.Background(), 1, quiz.Session.SessionID, 1, true)
	require.ErrorIs(t, err, util.ErrNotMockTest)

	mock, err := env.svc.StartSession(context.Background(), 2, model.MockTest, "math", "")
	require.NoError(t, err)
	require.NoError(t, env.svc.MarkForReview(context.Background(), 2, mock.Session.SessionID, 1, true))

	// 标记与判分正交：已标记的位置照常作答
	_, err = env.svc.SubmitAnswer(context.Background(), 2, mock.Session.SessionID, 1, "A", 10)
	require.NoError(t, err)

	questions, err := env.sessions.GetQuestions(mock.Session.ID)
	require.NoError(t, err)
	require.True(t, questions[0].MarkedForReview)
	require.True(t, questions[0].Answered)

	// 可以取消标记
	require.NoError(t, env.svc.MarkForReview(context.Background(), 2, mock.Session.SessionID, 1, false))
}

func TestMockTestAutoSubmitOnExpiry(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.MockTest, "math", "")
	require.NoError(t, err)
	sessionID := detail.Session.SessionID

	_, err = env.svc.SubmitAnswer(context.Background(), 1, sessionID, 1, "A", 40)
	require.NoError(t, err)

	// 把启动时间拨回限时之前，模拟超时
	expiredStart := time.Now().Add(-time.Duration(env.cfg.MockTestDurationMinutes+5) * time.Minute)
	require.NoError(t, env.db.Model(&model.PracticeSession{}).
		Where("session_id = ?", sessionID).
		Update("started_at", expiredStart).Error)

	require.NoError(t, env.svc.ProcessExpiredMockTests())

	session, err := env.sessions.FindBySessionID(sessionID)
	require.NoError(t, err)
	require.Equal(t, model.SessionCompleted, session.Status)
	require.NotNil(t, session.CompletedAt)
	require.Nil(t, session.Active)

	// 未答位置保持未答，不按答错计
	questions, err := env.sessions.GetQuestions(session.ID)
	require.NoError(t, err)
	for _, sq := range questions[1:] {
		require.False(t, sq.Answered)
	}
	require.Equal(t, 1, session.AnsweredCount)

	// 自动交卷也计入练习统计
	record, err := env.streakRepo.Find(1)
	require.NoError(t, err)
	require.Equal(t, 1, record.WeeklyStats[0].TotalQuizzes)

	// 再次扫描是幂等的
	require.NoError(t, env.svc.ProcessExpiredMockTests())
	record, err = env.streakRepo.Find(1)
	require.NoError(t, err)
	require.Equal(t, 1, record.WeeklyStats[0].TotalQuizzes)
}

func TestExpiredMockTestRejectsLateAnswers(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 5, "math", "algebra")

	detail, err := env.svc.StartSession(context.Background(), 1, model.MockTest, "math", "")
	require.NoError(t, err)

	expiredStart := time.Now().Add(-time.Duration(env.cfg.MockTestDurationMinutes+5) * time.Minute)
	require.NoError(t, env.db.Model(&model.PracticeSession{}).
		Where("session_id = ?", detail.Session.SessionID).
		Update("started_at", expiredStart).Error)

	// 后台任务尚未扫描，但服务端重算剩余时间后拒绝作答
	_, err = env.svc.SubmitAnswer(context.Background(), 1, detail.Session.SessionID, 2, "A", 10)
	require.ErrorIs(t, err, util.ErrSessionNotActive)

	// 恢复请求触发自动交卷而不是返回已超时的会话
	resumed, err := env.svc.GetActiveSession(context.Background(), 1, model.MockTest)
	require.NoError(t, err)
	require.Nil(t, resumed)
}

func TestStartSessionExcludesRecentlySeenQuestions(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	env.seedQuestions(t, 6, "math", "algebra")

	first, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	seen := map[uint]bool{}
	for _, sq := range first.Questions {
		seen[sq.QuestionID] = true
	}
	_, err = env.svc.CompleteSession(context.Background(), 1, first.Session.SessionID)
	require.NoError(t, err)

	second, err := env.svc.StartSession(context.Background(), 1, model.DailyQuiz, "math", "")
	require.NoError(t, err)
	for _, sq := range second.Questions {
		require.False(t, seen[sq.QuestionID], "question %d repeated within exclusion window", sq.QuestionID)
	}
}

func TestGuardOpensBreakerAndShortCircuits(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	boom := errors.New("backend exploded")

	for i := 0; i < env.cfg.BreakerFailureThreshold; i++ {
		err := env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	// 阈值已到：后续调用直接熔断，不再执行 fn
	called := false
	err := env.breaker.Guard(1, DependencyQuizGeneration, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, util.ErrCircuitOpen)
	require.False(t, called)

	// 其他用户、其他依赖不受影响
	require.NoError(t, env.breaker.Guard(2, DependencyQuizGeneration, func() error { return nil }))
	require.NoError(t, env.breaker.Guard(1, DependencyAnswerScoring, func() error { return nil }))
}

func TestGuardAllowsProbeAfterCooldown(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	boom := errors.New("backend exploded")

	for i := 0; i < env.cfg.BreakerFailureThreshold; i++ {
		_ = env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
	}
	open, err := env.breaker.IsOpen(1, DependencyQuizGeneration)
	require.NoError(t, err)
	require.True(t, open)

	// 冷却期过后进入半开，放行探测调用；成功即闭合
	openedAt := time.Now().Add(-time.Duration(env.cfg.BreakerCooldownMinutes+1) * time.Minute)
	require.NoError(t, env.db.Model(&model.CircuitBreakerState{}).
		Where("user_id = ? AND dependency = ?", 1, DependencyQuizGeneration).
		Update("opened_at", openedAt).Error)

	probed := false
	require.NoError(t, env.breaker.Guard(1, DependencyQuizGeneration, func() error {
		probed = true
		return nil
	}))
	require.True(t, probed)

	open, err = env.breaker.IsOpen(1, DependencyQuizGeneration)
	require.NoError(t, err)
	require.False(t, open)
}

func TestGuardFailedProbeReopensBreaker(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	boom := errors.New("still broken")

	for i := 0; i < env.cfg.BreakerFailureThreshold; i++ {
		_ = env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
	}
	openedAt := time.Now().Add(-time.Duration(env.cfg.BreakerCooldownMinutes+1) * time.Minute)
	require.NoError(t, env.db.Model(&model.CircuitBreakerState{}).
		Where("user_id = ? AND dependency = ?", 1, DependencyQuizGeneration).
		Update("opened_at", openedAt).Error)

	// 探测仍失败：OpenedAt 刷新，熔断继续打开
	err := env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
	require.ErrorIs(t, err, boom)

	called := false
	err = env.breaker.Guard(1, DependencyQuizGeneration, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, util.ErrCircuitOpen)
	require.False(t, called)
}

func TestGuardIgnoresValidationErrors(t *testing.T) {
	env := newSessionTestEnv(t, nil)

	for i := 0; i < env.cfg.BreakerFailureThreshold*2; i++ {
		err := env.breaker.Guard(1, DependencyAnswerScoring, func() error {
			return util.ErrInvalidAnswerFormat
		})
		require.ErrorIs(t, err, util.ErrInvalidAnswerFormat)
	}

	open, err := env.breaker.IsOpen(1, DependencyAnswerScoring)
	require.NoError(t, err)
	require.False(t, open)
}

func TestGuardSuccessResetsFailureCount(t *testing.T) {
	env := newSessionTestEnv(t, nil)
	boom := errors.New("transient failure")

	for i := 0; i < env.cfg.BreakerFailureThreshold-1; i++ {
		_ = env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
	}
	require.NoError(t, env.breaker.Guard(1, DependencyQuizGeneration, func() error { return nil }))

	// 连续计数已清零，再失败一次不会触发熔断
	_ = env.breaker.Guard(1, DependencyQuizGeneration, func() error { return boom })
	open, err := env.breaker.IsOpen(1, DependencyQuizGeneration)
	require.NoError(t, err)
	require.False(t, open)
}

func TestScoreAnswer(t *testing.T) {
	choice := &model.Question{
		Type:          model.SingleChoice,
		CorrectAnswer: "A",
	}
	correct, err := ScoreAnswer(choice, " a ")
	require.NoError(t, err)
	require.True(t, correct)

	correct, err = ScoreAnswer(choice, "B")
	require.NoError(t, err)
	require.False(t, correct)

	lo, hi := 3.1, 3.2
	numeric := &model.Question{
		Type:      model.Numeric,
		AnswerMin: &lo,
		AnswerMax: &hi,
	}
	correct, err = ScoreAnswer(numeric, "3.15")
	require.NoError(t, err)
	require.True(t, correct)

	// 闭区间端点算对
	correct, err = ScoreAnswer(numeric, "3.1")
	require.NoError(t, err)
	require.True(t, correct)

	correct, err = ScoreAnswer(numeric, "3.3")
	require.NoError(t, err)
	require.False(t, correct)

	_, err = ScoreAnswer(numeric, "not-a-number")
	require.ErrorIs(t, err, util.ErrInvalidAnswerFormat)

	exact := &model.Question{
		Type:          model.Numeric,
		CorrectAnswer: "42",
	}
	correct, err = ScoreAnswer(exact, "42")
	require.NoError(t, err)
	require.True(t, correct)
}
