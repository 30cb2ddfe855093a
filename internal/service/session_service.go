package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionDetail 会话全量视图。CurrentPosition 由已答题目数推导，
// 客户端崩溃后凭此恢复到下一未答位置。
type SessionDetail struct {
	Session          *model.PracticeSession  `json:"session"`
	Questions        []model.SessionQuestion `json:"questions"`
	CurrentPosition  int                     `json:"currentPosition"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	Resumed          bool                    `json:"resumed"`
}

// SubmitAnswerResult AbilityUpdated=false 表示判分成功但题目参数非法、
// 能力估计保持原值，调用方据此上报数据质量问题。
type SubmitAnswerResult struct {
	IsCorrect      bool    `json:"isCorrect"`
	AbilityUpdated bool    `json:"abilityUpdated"`
	Theta          float64 `json:"theta"`
	StandardError  float64 `json:"standardError"`
}

// SessionSummary 完成后的结算视图。未答题不按答错计：
// AccuracyAnswered 分母是已答数，ScoreRatio 分母是总题数。
type SessionSummary struct {
	SessionID        string            `json:"sessionId"`
	SessionType      model.SessionType `json:"sessionType"`
	Subject          string            `json:"subject"`
	TotalQuestions   int               `json:"totalQuestions"`
	AnsweredCount    int               `json:"answeredCount"`
	CorrectCount     int               `json:"correctCount"`
	UnansweredCount  int               `json:"unansweredCount"`
	AccuracyAnswered float64           `json:"accuracyAnswered"`
	ScoreRatio       float64           `json:"scoreRatio"`
	TotalTimeSeconds int               `json:"totalTimeSeconds"`
}

// SessionService 会话状态机：in_progress -> completed | abandoned，
// 模考超时经 auto_submitting 收敛到 completed。所有生命周期变更都在
// 行锁事务内执行，外层再加每用户 Redis 锁挡住同一用户的并发入口。
type SessionService struct {
	cfg          config.EngineConfig
	sessionRepo  *repository.SessionRepository
	questionRepo *repository.QuestionRepository
	abilityRepo  *repository.AbilityProfileRepository
	selector     *QuestionSelector
	estimator    *AbilityEstimator
	breaker      *CircuitBreakerService
	streak       *StreakService
	rdb          *redis.Client
}

func NewSessionService(
	cfg config.EngineConfig,
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	abilityRepo *repository.AbilityProfileRepository,
	selector *QuestionSelector,
	estimator *AbilityEstimator,
	breaker *CircuitBreakerService,
	streak *StreakService,
	rdb *redis.Client,
) *SessionService {
	return &SessionService{
		cfg:          cfg,
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		abilityRepo:  abilityRepo,
		selector:     selector,
		estimator:    estimator,
		breaker:      breaker,
		streak:       streak,
		rdb:          rdb,
	}
}

// StartSession 开始或恢复会话。已有同类型进行中会话时返回该会话
// （同一 sessionId，Resumed=true），不报错也不新建。
func (s *SessionService) StartSession(ctx context.Context, userID uint, sessionType model.SessionType, subject, chapterKey string) (*SessionDetail, error) {
	count, durationSeconds, err := s.sessionShape(sessionType)
	if err != nil {
		return nil, err
	}
	if sessionType == model.ChapterPractice && chapterKey == "" {
		return nil, util.ErrInvalidSessionType
	}
	if sessionType != model.ChapterPractice {
		// 仅章节练习锁定单章
		chapterKey = ""
	}

	unlock := s.lockUser(ctx, userID)
	defer unlock()

	if detail, err := s.resumeExisting(userID, sessionType); err != nil {
		return nil, err
	} else if detail != nil {
		return detail, nil
	}

	theta := 0.0
	if profile, err := s.abilityRepo.FindByUserAndSubject(userID, subject); err == nil {
		theta = profile.Theta
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 选题走熔断保护：题库/排除集查询失败计入 quiz_generation 失败
	var selection *SelectionResult
	err = s.breaker.Guard(userID, DependencyQuizGeneration, func() error {
		exclude, gerr := s.questionRepo.RecentQuestionIDs(userID, time.Now().AddDate(0, 0, -s.cfg.RecentDays))
		if gerr != nil {
			return gerr
		}
		selection, gerr = s.selector.Select(theta, subject, chapterKey, exclude, count)
		return gerr
	})
	if err != nil {
		return nil, err
	}
	if len(selection.Questions) == 0 {
		return nil, util.ErrNoEligibleQuestions
	}

	active := true
	session := &model.PracticeSession{
		UserID:          userID,
		SessionType:     sessionType,
		Active:          &active,
		Subject:         subject,
		ChapterKey:      chapterKey,
		Status:          model.SessionInProgress,
		StartedAt:       time.Now(),
		DurationSeconds: durationSeconds,
		TotalQuestions:  len(selection.Questions),
		Partial:         selection.Partial,
	}

	err = s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Create(tx, session); err != nil {
			return err
		}
		questions := make([]model.SessionQuestion, len(selection.Questions))
		for i, q := range selection.Questions {
			questions[i] = model.SessionQuestion{
				SessionRef: session.ID,
				QuestionID: q.ID,
				Position:   i + 1,
			}
		}
		return s.sessionRepo.CreateQuestions(tx, questions)
	})
	if err != nil {
		// 并发 start 撞上唯一索引：对方先建成，转为恢复
		if isDuplicateKeyError(err) {
			if detail, rerr := s.resumeExisting(userID, sessionType); rerr == nil && detail != nil {
				return detail, nil
			}
			return nil, util.ErrSessionExists
		}
		return nil, err
	}

	monitoring.SessionCounter.WithLabelValues(string(sessionType), "started").Inc()
	return s.buildDetail(session, false)
}

// GetActiveSession 当前进行中会话，无则返回 (nil, nil)。
// 读路径同样触发超时模考的自动交卷，保证客户端看不到"已超时仍在进行"的会话。
func (s *SessionService) GetActiveSession(ctx context.Context, userID uint, sessionType model.SessionType) (*SessionDetail, error) {
	if _, _, err := s.sessionShape(sessionType); err != nil {
		return nil, err
	}

	actives, err := s.sessionRepo.FindActive(userID, sessionType)
	if err != nil {
		return nil, err
	}
	if len(actives) == 0 {
		return nil, nil
	}

	session := &actives[0]
	if session.SessionType == model.MockTest && session.Status == model.SessionInProgress &&
		session.RemainingSeconds(time.Now()) == 0 {
		if err := s.autoSubmit(session.SessionID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.buildDetail(session, true)
}

// GetSession 按 sessionId 查询，终态会话可用于回顾
func (s *SessionService) GetSession(ctx context.Context, userID uint, sessionID string) (*SessionDetail, error) {
	session, err := s.sessionRepo.FindBySessionID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return s.buildDetail(session, false)
}

// SubmitAnswer 判分并更新能力估计，同一事务内落盘。
// 同一位置重复提交返回 ErrPositionAnswered，首答保持权威。
func (s *SessionService) SubmitAnswer(ctx context.Context, userID uint, sessionID string, position int, answer string, timeTakenSeconds int) (*SubmitAnswerResult, error) {
	if timeTakenSeconds < 0 {
		timeTakenSeconds = 0
	}

	unlock := s.lockUser(ctx, userID)
	defer unlock()

	result := &SubmitAnswerResult{}
	err := s.breaker.Guard(userID, DependencyAnswerScoring, func() error {
		return s.sessionRepo.Transaction(func(tx *gorm.DB) error {
			session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrSessionNotFound
				}
				return err
			}
			if session.UserID != userID {
				return util.ErrPermissionDenied
			}
			if session.Status != model.SessionInProgress {
				return util.ErrSessionNotActive
			}
			// 超时模考不再受理作答，交由自动交卷收敛
			if session.SessionType == model.MockTest && session.RemainingSeconds(time.Now()) == 0 {
				return util.ErrSessionNotActive
			}
			if position < 1 || position > session.TotalQuestions {
				return util.ErrInvalidPosition
			}

			sq, err := s.sessionRepo.GetQuestionAt(tx, session.ID, position)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return util.ErrInvalidPosition
				}
				return err
			}
			if sq.Answered {
				return util.ErrPositionAnswered
			}

			question, err := s.questionRepo.FindByID(sq.QuestionID)
			if err != nil {
				return err
			}

			correct, err := ScoreAnswer(question, answer)
			if err != nil {
				return err
			}

			sq.Answered = true
			sq.StudentAnswer = answer
			sq.IsCorrect = correct
			sq.TimeTakenSeconds = timeTakenSeconds
			if err := s.sessionRepo.SaveQuestion(tx, sq); err != nil {
				return err
			}

			session.AnsweredCount++
			if correct {
				session.CorrectCount++
			}
			session.TotalTimeSeconds += timeTakenSeconds
			session.Version++
			if err := s.sessionRepo.Save(tx, session); err != nil {
				return err
			}

			profile, err := s.abilityRepo.FindOrCreate(tx, userID, session.Subject)
			if err != nil {
				return err
			}
			newTheta, newSE, uerr := s.estimator.Update(profile.Theta, profile.StandardError, question, correct)
			if uerr != nil {
				// 参数非法只影响能力更新，判分结果照常保存
				logger.Log.Warn("ability update skipped: malformed item parameters",
					zap.Uint("questionId", question.ID),
					zap.Float64("discriminationA", question.DiscriminationA),
					zap.Float64("guessingC", question.GuessingC))
				result.AbilityUpdated = false
			} else {
				profile.Theta = newTheta
				profile.StandardError = newSE
				profile.ResponseCount++
				profile.LastUpdatedAt = time.Now()
				if err := s.abilityRepo.Save(tx, profile); err != nil {
					return err
				}
				result.AbilityUpdated = true
			}

			result.IsCorrect = correct
			result.Theta = profile.Theta
			result.StandardError = profile.StandardError
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkForReview 模考专用的标记待查，与判分状态完全正交
func (s *SessionService) MarkForReview(ctx context.Context, userID uint, sessionID string, position int, marked bool) error {
	return s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return util.ErrPermissionDenied
		}
		if session.SessionType != model.MockTest {
			return util.ErrNotMockTest
		}
		if session.Status != model.SessionInProgress {
			return util.ErrSessionNotActive
		}
		if position < 1 || position > session.TotalQuestions {
			return util.ErrInvalidPosition
		}

		sq, err := s.sessionRepo.GetQuestionAt(tx, session.ID, position)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrInvalidPosition
			}
			return err
		}
		sq.MarkedForReview = marked
		return s.sessionRepo.SaveQuestion(tx, sq)
	})
}

// CompleteSession 主动交卷。完成后更新连续练习统计（唯一入口），
// 废弃的会话不计入。
func (s *SessionService) CompleteSession(ctx context.Context, userID uint, sessionID string) (*SessionSummary, error) {
	unlock := s.lockUser(ctx, userID)
	defer unlock()

	var completed *model.PracticeSession
	err := s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return util.ErrPermissionDenied
		}
		if session.Status != model.SessionInProgress && session.Status != model.SessionAutoSubmitting {
			return util.ErrSessionNotActive
		}

		now := time.Now()
		session.Status = model.SessionCompleted
		session.CompletedAt = &now
		session.Active = nil
		session.Version++
		if err := s.sessionRepo.Save(tx, session); err != nil {
			return err
		}
		completed = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCompletion(completed)
	return buildSummary(completed), nil
}

// AbandonSession 放弃会话。不走结算，不影响连续练习统计。
func (s *SessionService) AbandonSession(ctx context.Context, userID uint, sessionID string) error {
	unlock := s.lockUser(ctx, userID)
	defer unlock()

	var abandoned *model.PracticeSession
	err := s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return util.ErrPermissionDenied
		}
		if session.Status != model.SessionInProgress {
			return util.ErrSessionNotActive
		}

		session.Status = model.SessionAbandoned
		session.Active = nil
		session.Version++
		if err := s.sessionRepo.Save(tx, session); err != nil {
			return err
		}
		abandoned = session
		return nil
	})
	if err != nil {
		return err
	}

	monitoring.SessionCounter.WithLabelValues(string(abandoned.SessionType), "abandoned").Inc()
	return nil
}

// ProcessExpiredMockTests 后台任务入口：扫描超时模考并自动交卷。
// 单个会话失败只记日志，不阻断本轮其余会话。
func (s *SessionService) ProcessExpiredMockTests() error {
	expired, err := s.sessionRepo.FindExpiredMockTests(time.Now())
	if err != nil {
		return err
	}
	for i := range expired {
		if err := s.autoSubmit(expired[i].SessionID); err != nil {
			logger.Log.Error("auto-submit of expired mock test failed",
				zap.String("sessionId", expired[i].SessionID),
				zap.Error(err))
		}
	}
	return nil
}

// autoSubmit 超时模考的自动交卷：in_progress -> auto_submitting -> completed。
// 未答位置保持未答，不按答错计。幂等：已离开 in_progress 的会话直接跳过。
func (s *SessionService) autoSubmit(sessionID string) error {
	var completed *model.PracticeSession
	err := s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if session.Status != model.SessionInProgress {
			return nil
		}

		session.Status = model.SessionAutoSubmitting
		session.Version++
		if err := s.sessionRepo.Save(tx, session); err != nil {
			return err
		}

		now := time.Now()
		session.Status = model.SessionCompleted
		session.CompletedAt = &now
		session.Active = nil
		session.Version++
		if err := s.sessionRepo.Save(tx, session); err != nil {
			return err
		}
		completed = session
		return nil
	})
	if err != nil {
		return err
	}
	if completed == nil {
		return nil
	}

	logger.Log.Info("mock test auto-submitted",
		zap.String("sessionId", completed.SessionID),
		zap.Uint("userId", completed.UserID),
		zap.Int("answered", completed.AnsweredCount),
		zap.Int("total", completed.TotalQuestions))
	s.afterCompletion(completed)
	return nil
}

// afterCompletion 完成后的副作用：指标与连续练习统计。
// 统计失败不回滚会话终态，只记日志。
func (s *SessionService) afterCompletion(session *model.PracticeSession) {
	monitoring.SessionCounter.WithLabelValues(string(session.SessionType), "completed").Inc()

	timeMinutes := (session.TotalTimeSeconds + 59) / 60
	if err := s.streak.OnSessionCompleted(session.UserID, time.Now(), session.AnsweredCount, session.CorrectCount, timeMinutes); err != nil {
		logger.Log.Error("streak update after session completion failed",
			zap.Uint("userId", session.UserID),
			zap.String("sessionId", session.SessionID),
			zap.Error(err))
	}
}

// resumeExisting 返回可恢复的进行中会话；无则 (nil, nil)。
// 发现多条进行中会话（唯一索引上线前的历史数据）时保最新、废弃其余。
func (s *SessionService) resumeExisting(userID uint, sessionType model.SessionType) (*SessionDetail, error) {
	actives, err := s.sessionRepo.FindActive(userID, sessionType)
	if err != nil {
		return nil, err
	}
	if len(actives) == 0 {
		return nil, nil
	}

	for i := 1; i < len(actives); i++ {
		stale := actives[i]
		logger.Log.Error("multiple in-progress sessions found, force-abandoning older one",
			zap.Uint("userId", userID),
			zap.String("sessionType", string(sessionType)),
			zap.String("sessionId", stale.SessionID))
		if err := s.forceAbandon(stale.SessionID); err != nil {
			return nil, err
		}
	}

	session := &actives[0]
	if session.SessionType == model.MockTest && session.Status == model.SessionInProgress &&
		session.RemainingSeconds(time.Now()) == 0 {
		if err := s.autoSubmit(session.SessionID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return s.buildDetail(session, true)
}

func (s *SessionService) forceAbandon(sessionID string) error {
	return s.sessionRepo.Transaction(func(tx *gorm.DB) error {
		session, err := s.sessionRepo.FindBySessionIDForUpdate(tx, sessionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if session.Terminal() {
			return nil
		}
		session.Status = model.SessionAbandoned
		session.Active = nil
		session.Version++
		return s.sessionRepo.Save(tx, session)
	})
}

func (s *SessionService) buildDetail(session *model.PracticeSession, resumed bool) (*SessionDetail, error) {
	questions, err := s.sessionRepo.GetQuestions(session.ID)
	if err != nil {
		return nil, err
	}

	// 恢复位置以题目表为准，不信任会话计数
	answered := 0
	for i := range questions {
		if questions[i].Answered {
			answered++
		}
	}
	current := answered + 1
	if current > len(questions) {
		current = len(questions)
	}

	return &SessionDetail{
		Session:          session,
		Questions:        questions,
		CurrentPosition:  current,
		RemainingSeconds: session.RemainingSeconds(time.Now()),
		Resumed:          resumed,
	}, nil
}

func (s *SessionService) sessionShape(sessionType model.SessionType) (count, durationSeconds int, err error) {
	switch sessionType {
	case model.DailyQuiz:
		return s.cfg.DailyQuizQuestions, 0, nil
	case model.ChapterPractice:
		return s.cfg.ChapterPracticeQuestions, 0, nil
	case model.MockTest:
		return s.cfg.MockTestQuestions, s.cfg.MockTestDurationMinutes * 60, nil
	default:
		return 0, 0, util.ErrInvalidSessionType
	}
}

// lockUser 每用户 Redis 锁，挡住同一用户跨实例的并发入口。
// Redis 不可用时降级为仅数据库行锁（正确性仍由行锁与唯一索引保证），
// 返回的释放函数永不为 nil。
func (s *SessionService) lockUser(ctx context.Context, userID uint) func() {
	if s.rdb == nil {
		return func() {}
	}

	key := fmt.Sprintf("engine:user_lock:%d", userID)
	for attempt := 0; attempt < 50; attempt++ {
		ok, err := s.rdb.SetNX(ctx, key, 1, 10*time.Second).Result()
		if err != nil {
			logger.Log.Warn("redis user lock unavailable, falling back to row locks", zap.Error(err))
			return func() {}
		}
		if ok {
			return func() {
				s.rdb.Del(context.Background(), key)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Log.Warn("redis user lock acquisition timed out", zap.Uint("userId", userID))
	return func() {}
}

// ScoreAnswer 判分。单选按选项标识比对（忽略大小写与首尾空白），
// 数值题解析失败返回 ErrInvalidAnswerFormat（校验类错误，不计入熔断），
// 配置了 [AnswerMin, AnswerMax] 时按闭区间判定。
func ScoreAnswer(q *model.Question, answer string) (bool, error) {
	switch q.Type {
	case model.SingleChoice:
		return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer)), nil
	case model.Numeric:
		value, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
		if err != nil {
			return false, util.ErrInvalidAnswerFormat
		}
		if q.AnswerMin != nil && q.AnswerMax != nil {
			return value >= *q.AnswerMin && value <= *q.AnswerMax, nil
		}
		expected, err := strconv.ParseFloat(strings.TrimSpace(q.CorrectAnswer), 64)
		if err != nil {
			return false, util.ErrMalformedQuestion
		}
		return math.Abs(value-expected) < 1e-9, nil
	default:
		return false, util.ErrMalformedQuestion
	}
}

// isDuplicateKeyError 兼容 gorm 错误翻译与原生驱动错误文本
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

func buildSummary(session *model.PracticeSession) *SessionSummary {
	summary := &SessionSummary{
		SessionID:        session.SessionID,
		SessionType:      session.SessionType,
		Subject:          session.Subject,
		TotalQuestions:   session.TotalQuestions,
		AnsweredCount:    session.AnsweredCount,
		CorrectCount:     session.CorrectCount,
		UnansweredCount:  session.TotalQuestions - session.AnsweredCount,
		TotalTimeSeconds: session.TotalTimeSeconds,
	}
	if session.AnsweredCount > 0 {
		summary.AccuracyAnswered = float64(session.CorrectCount) / float64(session.AnsweredCount)
	}
	if session.TotalQuestions > 0 {
		summary.ScoreRatio = float64(session.CorrectCount) / float64(session.TotalQuestions)
	}
	return summary
}
