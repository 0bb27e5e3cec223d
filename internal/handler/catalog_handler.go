package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focusblock/internal/middleware"
	"focusblock/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

type createDepartmentRequest struct {
	Name string `json:"name"`
}

type createProjectRequest struct {
	DepartmentID string `json:"departmentId"`
	Code         string `json:"code"`
	Name         string `json:"name"`
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	department, apiErr := h.catalogService.CreateDepartment(c.Request.Context(), middleware.UserID(c), req.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": department})
}

func (h *CatalogHandler) ListDepartments(c *gin.Context) {
	departments, apiErr := h.catalogService.ListDepartments(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

func (h *CatalogHandler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	project, apiErr := h.catalogService.CreateProject(c.Request.Context(), middleware.UserID(c), req.DepartmentID, req.Code, req.Name)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func (h *CatalogHandler) ListProjects(c *gin.Context) {
	projects, apiErr := h.catalogService.ListProjects(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}
