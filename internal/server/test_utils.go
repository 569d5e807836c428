package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup removes fixture rows created by end-to-end runs. Never
// registered in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.Environment == "production" {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	like := prefix + "%"

	var indicatorIDs []int64
	if err := s.db.WithContext(ctx).
		Table("indicators").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&indicatorIDs).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	if len(indicatorIDs) > 0 {
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM observations WHERE indicator_id IN ?`, indicatorIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM center_observations WHERE indicator_id IN ?`, indicatorIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
		if err := s.db.WithContext(ctx).Exec(
			`DELETE FROM indicators WHERE id IN ?`, indicatorIDs,
		).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if err := s.db.WithContext(ctx).Exec(
		`DELETE FROM users WHERE username LIKE ?`, like,
	).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
