package util

import "errors"

// 校验类错误：立即拒绝，不重试
var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotActive    = errors.New("session is not in progress")
	ErrSessionExists       = errors.New("an in-progress session of this type already exists")
	ErrPositionAnswered    = errors.New("position already answered")
	ErrInvalidPosition     = errors.New("invalid question position")
	ErrMalformedQuestion   = errors.New("malformed item parameters")
	ErrNotMockTest         = errors.New("operation is only valid for mock tests")
	ErrQuestionInUse       = errors.New("question referenced by existing sessions")
	ErrInvalidSessionType  = errors.New("invalid session type")
	ErrInvalidAnswerFormat = errors.New("invalid answer format")
)

// 瞬态依赖错误与熔断
var (
	ErrCircuitOpen = errors.New("服务暂时不可用，请稍后再试")
)

// 数据稀疏：空题池不是错误，由显式空结果表达；此错误仅用于
// 调用方将空结果判定为致命时的上抛
var (
	ErrNoEligibleQuestions = errors.New("该章节暂无可用题目")
)
