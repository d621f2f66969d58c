package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/auth"
	"github.com/farmhand/farmhand/internal/report"
)

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"mode":           s.store.Mode(),
		"cloudConnected": s.store.CloudConnected(),
	})
}

func (s *server) handleLoginForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email":         s.gate.RememberedEmail(),
		"authenticated": s.gate.Authenticated(),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

func (s *server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	err := s.gate.Login(req.Email, req.Password, req.Remember)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		s.log.Error("api: login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

func (s *server) handleLogout(c *gin.Context) {
	if err := s.gate.Logout(); err != nil {
		s.log.Error("api: logout", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": false})
}

func (s *server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"mode":           s.store.Mode(),
		"backend":        s.store.Backend(),
		"cloudConnected": s.store.CloudConnected(),
		"overview":       report.Summarize(s.store.Fields(), s.store.Cycles(), s.store.PestReports()),
		"season":         advisor.Season(s.now()),
		"recommendation": advisor.SeasonAdvice(s.now()),
	})
}
