package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/statboard/statboard/internal/auth/domain"
)

func (s *Server) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authsvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) Register(c *gin.Context) {
	var req authdomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authsvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) Me(c *gin.Context) {
	identity := s.identity(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.authsvc.Me(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ChangePassword(c *gin.Context) {
	identity := s.identity(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req authdomain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), identity.UserID, req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) UpdateProfile(c *gin.Context) {
	identity := s.identity(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req authdomain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authsvc.UpdateProfile(c.Request.Context(), identity.UserID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) MyPermissions(c *gin.Context) {
	identity := s.identity(c)
	if identity == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	codes, err := s.authzSvc.Permissions(c.Request.Context(), identity.UserID, identity.RoleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"permissions": codes})
}
