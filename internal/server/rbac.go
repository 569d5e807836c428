package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	rbacdomain "github.com/statboard/statboard/internal/rbac/domain"
)

func (s *Server) ListRoles(c *gin.Context) {
	roles, err := s.rbacSvc.ListRoles(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) CreateRole(c *gin.Context) {
	var req rbacdomain.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rbacSvc.CreateRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateRole(c *gin.Context) {
	var req rbacdomain.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.rbacSvc.UpdateRole(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteRole(c *gin.Context) {
	if err := s.rbacSvc.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListPermissions(c *gin.Context) {
	req := rbacdomain.ListPermissionsRequest{
		Query:    strings.TrimSpace(c.Query("query")),
		Resource: strings.TrimSpace(c.Query("resource")),
		Action:   strings.TrimSpace(c.Query("action")),
		Status:   optionalIntQuery(c, "status"),
		RoleID:   strings.TrimSpace(c.Query("role_id")),
	}

	perms, err := s.rbacSvc.ListPermissions(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (s *Server) CreatePermission(c *gin.Context) {
	var req rbacdomain.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.rbacSvc.CreatePermission(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdatePermission(c *gin.Context) {
	var req rbacdomain.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.rbacSvc.UpdatePermission(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeletePermission(c *gin.Context) {
	if err := s.rbacSvc.DeletePermission(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetRolePermissions(c *gin.Context) {
	perms, err := s.rbacSvc.GetRolePermissions(c.Request.Context(), c.Param("role_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": perms})
}

func (s *Server) AssignRolePermissions(c *gin.Context) {
	var req rbacdomain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.rbacSvc.AssignRolePermissions(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RevokeRolePermission(c *gin.Context) {
	if err := s.rbacSvc.RevokeRolePermission(c.Request.Context(), c.Param("role_id"), c.Param("permission_id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
