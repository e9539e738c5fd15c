package controller

import (
	"strings"
	"survey_backend/internal/model"
	"survey_backend/internal/repository"
	"survey_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SectionController struct {
	SectionRepo *repository.SectionRepository
}

func NewSectionController(sectionRepo *repository.SectionRepository) *SectionController {
	return &SectionController{SectionRepo: sectionRepo}
}

// ListSections godoc
// @Summary 班级列表
// @Tags 班级
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Section}
// @Router /api/sections [get]
func (c *SectionController) ListSections(ctx *gin.Context) {
	sections, err := c.SectionRepo.List(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sections)
}

type CreateSectionRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// CreateSection godoc
// @Summary 创建班级
// @Tags 班级
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateSectionRequest true "班级信息"
// @Success 201 {object} util.Response{data=model.Section}
// @Failure 409 {object} util.Response "班级已存在"
// @Router /api/teacher/sections [post]
func (c *SectionController) CreateSection(ctx *gin.Context) {
	var req CreateSectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		util.BadRequest(ctx, "name is required")
		return
	}

	section := &model.Section{Name: name, Description: req.Description}
	if err := c.SectionRepo.Create(ctx.Request.Context(), section); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, section)
}
