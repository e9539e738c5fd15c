package controller

import (
	"survey_backend/internal/service"
	"survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SurveyController serves the teacher side: authoring, dashboard and
// response review.
type SurveyController struct {
	SurveyService   *service.SurveyService
	ResponseService *service.ResponseService
	SummaryService  *service.SummaryService
	ExportService   *service.ExportService
}

func NewSurveyController(surveys *service.SurveyService, responses *service.ResponseService, summary *service.SummaryService, export *service.ExportService) *SurveyController {
	return &SurveyController{
		SurveyService:   surveys,
		ResponseService: responses,
		SummaryService:  summary,
		ExportService:   export,
	}
}

func surveyIDParam(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.NotFound(ctx)
		return 0, false
	}
	return id, true
}

// Dashboard godoc
// @Summary 教师仪表盘
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TeacherDashboard}
// @Router /api/teacher/dashboard [get]
func (c *SurveyController) Dashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dashboard, err := c.SurveyService.TeacherDashboard(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// ListSurveys godoc
// @Summary 我的问卷
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Survey}
// @Router /api/teacher/surveys [get]
func (c *SurveyController) ListSurveys(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveys, err := c.SurveyService.ListOwnSurveys(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, surveys)
}

// CreateSurvey godoc
// @Summary 创建问卷
// @Tags 教师问卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SurveyInput true "问卷信息"
// @Success 201 {object} util.Response{data=model.Survey}
// @Failure 400 {object} util.Response
// @Router /api/teacher/surveys [post]
func (c *SurveyController) CreateSurvey(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.SurveyInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	survey, err := c.SurveyService.CreateSurvey(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, survey)
}

// GetSurvey godoc
// @Summary 问卷详情（含正确答案）
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Success 200 {object} util.Response{data=model.Survey}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/teacher/surveys/{id} [get]
func (c *SurveyController) GetSurvey(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}

	survey, err := c.SurveyService.GetSurvey(ctx.Request.Context(), claims.UserID, surveyID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// UpdateSurvey godoc
// @Summary 更新问卷
// @Description 省略的字段保持不变；sectionIds 为空数组表示分配给所有班级
// @Tags 教师问卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   body body service.SurveyUpdate true "更新内容"
// @Success 200 {object} util.Response{data=model.Survey}
// @Router /api/teacher/surveys/{id} [put]
func (c *SurveyController) UpdateSurvey(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}
	var req service.SurveyUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	survey, err := c.SurveyService.UpdateSurvey(ctx.Request.Context(), claims.UserID, surveyID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, survey)
}

// DeleteSurvey godoc
// @Summary 删除问卷
// @Description 同时删除题目、选项、提交记录和答案
// @Tags 教师问卷
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/surveys/{id} [delete]
func (c *SurveyController) DeleteSurvey(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}

	if err := c.SurveyService.DeleteSurvey(ctx.Request.Context(), claims.UserID, surveyID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AddQuestion godoc
// @Summary 添加题目
// @Tags 教师问卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=object}
// @Router /api/teacher/surveys/{id}/questions [post]
func (c *SurveyController) AddQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}
	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.SurveyService.AddQuestion(ctx.Request.Context(), claims.UserID, surveyID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"questionId": question.ID, "question": question})
}

// EditQuestion godoc
// @Summary 编辑题目
// @Description 传入 choices 时替换该题全部选项
// @Tags 教师问卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   questionId path int true "题目ID"
// @Param   body body service.QuestionUpdate true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/teacher/surveys/{id}/questions/{questionId} [put]
func (c *SurveyController) EditQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}
	questionID := util.MustParseUint(ctx.Param("questionId"))
	var req service.QuestionUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.SurveyService.EditQuestion(ctx.Request.Context(), claims.UserID, surveyID, questionID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 教师问卷
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   questionId path int true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/teacher/surveys/{id}/questions/{questionId} [delete]
func (c *SurveyController) DeleteQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}
	questionID := util.MustParseUint(ctx.Param("questionId"))

	if err := c.SurveyService.DeleteQuestion(ctx.Request.Context(), claims.UserID, surveyID, questionID); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Responses godoc
// @Summary 问卷提交记录
// @Description 按学生姓名/用户名/邮箱搜索，日期区间含首尾，每页 10 条
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   search query string false "搜索"
// @Param   dateFrom query string false "开始日期 yyyy-mm-dd"
// @Param   dateTo query string false "结束日期 yyyy-mm-dd"
// @Param   page query int false "页码"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/teacher/surveys/{id}/responses [get]
func (c *SurveyController) Responses(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}

	query := service.ResponseQuery{
		Search:   ctx.Query("search"),
		DateFrom: ctx.Query("dateFrom"),
		DateTo:   ctx.Query("dateTo"),
		Page:     int(util.MustParseUint(ctx.DefaultQuery("page", "1"))),
	}
	page, err := c.ResponseService.SurveyResponses(ctx.Request.Context(), claims.UserID, surveyID, query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, page)
}

// Summary godoc
// @Summary 问卷统计
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Success 200 {object} util.Response{data=service.SurveySummary}
// @Router /api/teacher/surveys/{id}/summary [get]
func (c *SurveyController) Summary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}

	summary, err := c.SummaryService.Summary(ctx.Request.Context(), claims.UserID, surveyID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Export godoc
// @Summary 导出提交记录 CSV
// @Tags 教师问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Success 201 {object} util.Response{data=service.ExportResult}
// @Router /api/teacher/surveys/{id}/export [post]
func (c *SurveyController) Export(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID, ok := surveyIDParam(ctx)
	if !ok {
		return
	}

	result, err := c.ExportService.Export(ctx.Request.Context(), claims.UserID, surveyID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}
