package controller

import (
	"fmt"
	"strconv"
	"survey_backend/internal/service"
	"survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StudentController struct {
	AssignmentService *service.AssignmentService
	SubmissionService *service.SubmissionService
	ResponseService   *service.ResponseService
}

func NewStudentController(assignment *service.AssignmentService, submission *service.SubmissionService, responses *service.ResponseService) *StudentController {
	return &StudentController{
		AssignmentService: assignment,
		SubmissionService: submission,
		ResponseService:   responses,
	}
}

// AssignedSurveys godoc
// @Summary 学生可填写的问卷
// @Description 返回当前学生所在班级可见、未过期且启用的问卷
// @Tags 学生问卷
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.AssignedSurvey}
// @Router /api/student/surveys [get]
func (c *StudentController) AssignedSurveys(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveys, err := c.AssignmentService.AssignedSurveys(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"assignedSurveys": surveys})
}

// Dashboard godoc
// @Summary 学生仪表盘
// @Tags 学生问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   tab query string false "overview | pending | completed"
// @Success 200 {object} util.Response{data=service.StudentDashboard}
// @Router /api/student/dashboard [get]
func (c *StudentController) Dashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	dashboard, err := c.AssignmentService.StudentDashboard(ctx.Request.Context(), claims.UserID, ctx.DefaultQuery("tab", util.TabOverview))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// SurveyDetail godoc
// @Summary 问卷详情（填写视图）
// @Tags 学生问卷
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Success 200 {object} util.Response{data=service.StudentSurveyDetail}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id} [get]
func (c *StudentController) SurveyDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID := util.MustParseUint(ctx.Param("id"))
	if surveyID == 0 {
		util.NotFound(ctx)
		return
	}

	detail, err := c.AssignmentService.SurveyDetail(ctx.Request.Context(), claims.UserID, surveyID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// SubmitRequest maps question ids to the submitted value: a choice id for
// mcq/likert questions, free text otherwise.
// swagger:model SubmitRequest
type SubmitRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

// formValues normalises the submitted answers. Keys that are not question ids
// are dropped.
func (r SubmitRequest) formValues() map[uint]string {
	values := make(map[uint]string, len(r.Answers))
	for key, raw := range r.Answers {
		id := util.MustParseUint(key)
		if id == 0 {
			continue
		}
		switch v := raw.(type) {
		case string:
			values[id] = v
		case float64:
			values[id] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			values[id] = fmt.Sprint(v)
		}
	}
	return values
}

// Submit godoc
// @Summary 提交问卷
// @Description 每个学生对每份问卷只能提交一次
// @Tags 学生问卷
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "问卷ID"
// @Param   body body SubmitRequest true "答案"
// @Success 201 {object} util.Response{data=object} "提交成功"
// @Failure 403 {object} util.Response "无权提交"
// @Failure 404 {object} util.Response "问卷不存在"
// @Failure 409 {object} util.Response "已提交"
// @Router /api/surveys/{id}/submit [post]
func (c *StudentController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	surveyID := util.MustParseUint(ctx.Param("id"))
	if surveyID == 0 {
		util.NotFound(ctx)
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	responseID, err := c.SubmissionService.Submit(ctx.Request.Context(), claims.UserID, surveyID, req.formValues())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"responseId": responseID})
}

// History godoc
// @Summary 提交历史
// @Tags 学生问卷
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.HistoryEntry}
// @Router /api/student/history [get]
func (c *StudentController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	history, err := c.ResponseService.History(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, history)
}
