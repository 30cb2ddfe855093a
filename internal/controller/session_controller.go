package controller

import (
	"errors"
	"strconv"

	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{
		SessionService: sessionService,
	}
}

// swagger:model StartSessionRequest
type StartSessionRequest struct {
	SessionType string `json:"sessionType" binding:"required,oneof=daily_quiz chapter_practice mock_test"`
	Subject     string `json:"subject" binding:"required"`
	ChapterKey  string `json:"chapterKey"`
}

// StartSession godoc
// @Summary 开始练习会话
// @Description 开始新会话；已有同类型进行中会话时返回该会话（resumed=true）
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartSessionRequest true "会话参数"
// @Success 200 {object} util.Response{data=service.SessionDetail} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "无可用题目"
// @Failure 503 {object} util.Response "出题服务熔断"
// @Router /api/sessions [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	detail, err := c.SessionService.StartSession(ctx.Request.Context(), claims.UserID,
		model.SessionType(req.SessionType), req.Subject, req.ChapterKey)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// GetActiveSession godoc
// @Summary 查询进行中会话
// @Description 返回指定类型的进行中会话，无则 data 为空
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   type query string true "会话类型" Enums(daily_quiz, chapter_practice, mock_test)
// @Success 200 {object} util.Response{data=service.SessionDetail} "成功"
// @Failure 400 {object} util.Response "类型非法"
// @Router /api/sessions/active [get]
func (c *SessionController) GetActiveSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionType := model.SessionType(ctx.Query("type"))
	detail, err := c.SessionService.GetActiveSession(ctx.Request.Context(), claims.UserID, sessionType)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	if detail == nil {
		util.Success(ctx, gin.H{"session": nil})
		return
	}
	util.Success(ctx, detail)
}

// GetSession godoc
// @Summary 查询会话详情
// @Description 按 sessionId 查询，终态会话可用于回顾
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionDetail} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{sessionId} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	detail, err := c.SessionService.GetSession(ctx.Request.Context(), claims.UserID, ctx.Param("sessionId"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// swagger:model SubmitAnswerRequest
type SubmitAnswerRequest struct {
	Position         int    `json:"position" binding:"required,min=1"`
	Answer           string `json:"answer" binding:"required"`
	TimeTakenSeconds int    `json:"timeTakenSeconds" binding:"min=0"`
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 判分并更新能力估计；同一位置重复提交返回409
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   sessionId path string true "会话ID"
// @Param   body body SubmitAnswerRequest true "作答内容"
// @Success 200 {object} util.Response{data=service.SubmitAnswerResult} "成功"
// @Failure 400 {object} util.Response "位置或答案格式非法"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "该位置已作答"
// @Failure 503 {object} util.Response "判分服务熔断"
// @Router /api/sessions/{sessionId}/answers [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.SessionService.SubmitAnswer(ctx.Request.Context(), claims.UserID,
		ctx.Param("sessionId"), req.Position, req.Answer, req.TimeTakenSeconds)
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// swagger:model MarkForReviewRequest
type MarkForReviewRequest struct {
	Marked *bool `json:"marked" binding:"required"`
}

// MarkForReview godoc
// @Summary 标记待查
// @Description 模考专用；标记与判分状态正交，可反复切换
// @Tags 会话
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   sessionId path string true "会话ID"
// @Param   position path int true "题目位置"
// @Param   body body MarkForReviewRequest true "标记状态"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "非模考会话或位置非法"
// @Router /api/sessions/{sessionId}/questions/{position}/mark [put]
func (c *SessionController) MarkForReview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	position, err := strconv.Atoi(ctx.Param("position"))
	if err != nil {
		util.BadRequest(ctx, "invalid position")
		return
	}

	var req MarkForReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.SessionService.MarkForReview(ctx.Request.Context(), claims.UserID,
		ctx.Param("sessionId"), position, *req.Marked); err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// CompleteSession godoc
// @Summary 交卷
// @Description 结束会话并返回结算摘要，更新连续练习统计
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.SessionSummary} "成功"
// @Failure 400 {object} util.Response "会话不在进行中"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{sessionId}/complete [post]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.SessionService.CompleteSession(ctx.Request.Context(), claims.UserID, ctx.Param("sessionId"))
	if err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// AbandonSession godoc
// @Summary 放弃会话
// @Description 放弃进行中的会话，不计入练习统计
// @Tags 会话
// @Produce  json
// @Security ApiKeyAuth
// @Param   sessionId path string true "会话ID"
// @Success 200 {object} util.Response "成功"
// @Failure 400 {object} util.Response "会话不在进行中"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/sessions/{sessionId}/abandon [post]
func (c *SessionController) AbandonSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.SessionService.AbandonSession(ctx.Request.Context(), claims.UserID, ctx.Param("sessionId")); err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// renderError 会话域错误到HTTP状态码的统一映射
func (c *SessionController) renderError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrNoEligibleQuestions):
		util.Error(ctx, 404, "该范围暂无可用题目，请尝试其他章节或学科")
	case errors.Is(err, util.ErrSessionExists),
		errors.Is(err, util.ErrPositionAnswered):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrCircuitOpen):
		util.ServiceUnavailable(ctx, err.Error())
	case errors.Is(err, util.ErrSessionNotActive),
		errors.Is(err, util.ErrInvalidPosition),
		errors.Is(err, util.ErrInvalidSessionType),
		errors.Is(err, util.ErrInvalidAnswerFormat),
		errors.Is(err, util.ErrNotMockTest):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
