package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	evaluationtypedomain "github.com/statboard/statboard/internal/evaluationtype/domain"
	majordomain "github.com/statboard/statboard/internal/major/domain"
	"github.com/statboard/statboard/pkg/db/pagination"
)

func (s *Server) ListEvaluationTypes(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.types.List(c.Request.Context(), evaluationtypedomain.ListRequest{
		Query: strings.TrimSpace(c.Query("query")),
		Page:  page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateEvaluationType(c *gin.Context) {
	var req evaluationtypedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.types.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateEvaluationType(c *gin.Context) {
	var req evaluationtypedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.types.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteEvaluationType(c *gin.Context) {
	if err := s.types.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListMajors(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.majors.List(c.Request.Context(), majordomain.ListRequest{
		Query: strings.TrimSpace(c.Query("query")),
		Page:  page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetMajor(c *gin.Context) {
	resp, err := s.majors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateMajor(c *gin.Context) {
	var req majordomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.majors.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateMajor(c *gin.Context) {
	var req majordomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.majors.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteMajor(c *gin.Context) {
	if err := s.majors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Dashboard reference reads. These back dropdowns and carry no paging.

func (s *Server) MetricDistricts(c *gin.Context) {
	districts, err := s.districts.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"districts": districts})
}

func (s *Server) MetricCircles(c *gin.Context) {
	circles, err := s.districts.Circles(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"circles": circles})
}

func (s *Server) MetricCenters(c *gin.Context) {
	centers, err := s.centers.List(c.Request.Context(), strings.TrimSpace(c.Query("district_id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"centers": centers})
}

func (s *Server) MetricMajors(c *gin.Context) {
	resp, err := s.majors.List(c.Request.Context(), majordomain.ListRequest{
		Page: pagination.Pagination{Page: 1, Size: 1000},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"majors": resp.Data})
}

func (s *Server) MetricEvaluationTypes(c *gin.Context) {
	resp, err := s.types.List(c.Request.Context(), evaluationtypedomain.ListRequest{
		Page: pagination.Pagination{Page: 1, Size: 1000},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"evaluation_types": resp.Data})
}
