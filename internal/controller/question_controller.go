package controller

import (
	"errors"
	"strconv"

	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{
		QuestionService: questionService,
	}
}

// swagger:model QuestionRequest
type QuestionRequest struct {
	Subject         string   `json:"subject" binding:"required"`
	ChapterKey      string   `json:"chapterKey"`
	Type            string   `json:"type" binding:"required,oneof=single_choice numeric"`
	Stem            string   `json:"stem" binding:"required"`
	Options         []string `json:"options"`
	CorrectAnswer   string   `json:"correctAnswer"`
	AnswerMin       *float64 `json:"answerMin"`
	AnswerMax       *float64 `json:"answerMax"`
	DiscriminationA float64  `json:"discriminationA" binding:"required"`
	DifficultyB     float64  `json:"difficultyB"`
	GuessingC       float64  `json:"guessingC"`
	Enabled         *bool    `json:"enabled"`
}

func (r *QuestionRequest) toModel() *model.Question {
	q := &model.Question{
		Subject:         r.Subject,
		ChapterKey:      r.ChapterKey,
		Type:            model.QuestionType(r.Type),
		Stem:            r.Stem,
		Options:         r.Options,
		CorrectAnswer:   r.CorrectAnswer,
		AnswerMin:       r.AnswerMin,
		AnswerMax:       r.AnswerMax,
		DiscriminationA: r.DiscriminationA,
		DifficultyB:     r.DifficultyB,
		GuessingC:       r.GuessingC,
		Enabled:         true,
	}
	if r.Enabled != nil {
		q.Enabled = *r.Enabled
	}
	return q
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 创建新题目，3PL参数非法时拒绝
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body QuestionRequest true "题目内容"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "参数非法"
// @Router /api/teacher/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := req.toModel()
	if err := c.QuestionService.Create(q); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Param   body body QuestionRequest true "题目内容"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Failure 400 {object} util.Response "参数非法"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/teacher/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := req.toModel()
	q.ID = uint(id)
	if err := c.QuestionService.Update(q); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Description 被历史会话引用的题目不允许删除，应使用禁用接口
// @Tags 题库
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Failure 409 {object} util.Response "题目被会话引用"
// @Router /api/teacher/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuestionService.Delete(uint(id)); err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionInUse):
			util.Conflict(ctx, "题目已被会话引用，请改用禁用下线")
		case errors.Is(err, gorm.ErrRecordNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// DisableQuestion godoc
// @Summary 禁用题目
// @Description 下线题目，不再进入选题候选；历史作答记录不受影响
// @Tags 题库
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/teacher/questions/{id}/disable [post]
func (c *QuestionController) DisableQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	if err := c.QuestionService.Disable(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// GetQuestion godoc
// @Summary 题目详情
// @Tags 题库
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/teacher/questions/{id} [get]
func (c *QuestionController) GetQuestion(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid question id")
		return
	}

	q, err := c.QuestionService.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// ListQuestions godoc
// @Summary 题目列表
// @Description 分页查询，支持学科与章节过滤
// @Tags 题库
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "学科"
// @Param   chapterKey query string false "章节"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/teacher/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	questions, total, err := c.QuestionService.List(ctx.Query("subject"), ctx.Query("chapterKey"), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  questions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
