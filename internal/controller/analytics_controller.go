package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{
		AnalyticsService: analyticsService,
	}
}

// GetAbilityProfile godoc
// @Summary 单学科能力画像
// @Description 返回当前用户在指定学科的能力估计；尚无作答记录时返回初始估计
// @Tags 学情
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject path string true "学科"
// @Success 200 {object} util.Response{data=model.AbilityProfile} "成功"
// @Router /api/analytics/ability/{subject} [get]
func (c *AnalyticsController) GetAbilityProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.AnalyticsService.GetAbilityProfile(ctx.Request.Context(), claims.UserID, ctx.Param("subject"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, profile)
}

// ListAbilityProfiles godoc
// @Summary 全部学科能力画像
// @Tags 学情
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.AbilityProfile} "成功"
// @Router /api/analytics/ability [get]
func (c *AnalyticsController) ListAbilityProfiles(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	profiles, err := c.AnalyticsService.ListAbilityProfiles(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, profiles)
}

// GetStreakSummary godoc
// @Summary 连续练习概览
// @Description 当前连击、最长连击与按周聚合的练习统计
// @Tags 学情
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StreakSummary} "成功"
// @Router /api/analytics/streak [get]
func (c *AnalyticsController) GetStreakSummary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.AnalyticsService.GetStreakSummary(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
