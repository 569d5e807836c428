package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	indicatordomain "github.com/statboard/statboard/internal/indicator/domain"
	"github.com/statboard/statboard/pkg/db/pagination"
)

func (s *Server) ListIndicators(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := indicatordomain.ListRequest{
		Query:  strings.TrimSpace(c.Query("query")),
		TypeID: strings.TrimSpace(c.Query("type_id")),
		Status: optionalIntQuery(c, "status"),
		Page:   page,
	}

	resp, err := s.inds.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetIndicator(c *gin.Context) {
	resp, err := s.inds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateIndicator(c *gin.Context) {
	var req indicatordomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inds.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateIndicator(c *gin.Context) {
	var req indicatordomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.inds.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteIndicator(c *gin.Context) {
	if err := s.inds.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MetricIndicatorList returns every active indicator for pickers.
func (s *Server) MetricIndicatorList(c *gin.Context) {
	items, err := s.inds.ListAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"indicators": items})
}

func (s *Server) MetricIndicatorsByType(c *gin.Context) {
	typeID := strings.TrimSpace(c.Query("type_id"))
	if typeID == "" {
		AbortWithError(c, newValidationError("type_id", "required", "type_id is required"))
		return
	}

	items, err := s.inds.ListByType(c.Request.Context(), typeID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"indicators": items})
}

func (s *Server) SearchIndicators(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		query = strings.TrimSpace(c.Query("q"))
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	items, err := s.inds.Search(c.Request.Context(), query, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"indicators": items})
}
