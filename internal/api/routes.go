package api

import (
	"github.com/gin-gonic/gin"
)

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/login", s.handleLoginForm)
	router.POST("/login", s.handleLogin)
	router.POST("/logout", s.handleLogout)

	api := router.Group("/api", s.gate.Guard())
	api.GET("/status", s.handleStatus)
	api.GET("/events", s.handleEvents)

	api.GET("/profile", s.handleGetProfile)
	api.PATCH("/profile", s.handleUpdateProfile)

	api.GET("/fields", s.handleListFields)
	api.POST("/fields", s.handleAddField)
	api.GET("/fields/:id", s.handleGetField)
	api.PATCH("/fields/:id", s.handleUpdateField)
	api.DELETE("/fields/:id", s.handleDeleteField)

	api.GET("/cycles", s.handleListCycles)
	api.POST("/cycles", s.handleAddCycle)
	api.GET("/cycles/:id", s.handleGetCycle)
	api.PATCH("/cycles/:id", s.handleUpdateCycle)
	api.POST("/cycles/:id/end", s.handleEndCycle)
	api.POST("/cycles/:id/tasks", s.handleAddTask)
	api.PATCH("/cycles/:id/tasks/:taskId", s.handleUpdateTask)
	api.PUT("/cycles/:id/tasks/:taskId/status", s.handleUpdateTaskStatus)
	api.DELETE("/cycles/:id/tasks/:taskId", s.handleDeleteTask)
	api.POST("/cycles/:id/harvests", s.handleAddHarvest)

	api.GET("/pest-reports", s.handleListPestReports)
	api.POST("/pest-reports", s.handleAddPestReport)
	api.GET("/pest-reports/:id", s.handleGetPestReport)
	api.PATCH("/pest-reports/:id", s.handleUpdatePestReport)

	api.GET("/presets/crops", s.handleListCropPresets)
	api.POST("/presets/crops", s.handleAddCropPreset)
	api.DELETE("/presets/crops/:id", s.handleDeleteCropPreset)
	api.GET("/presets/pests", s.handleListPestPresets)
	api.POST("/presets/pests", s.handleAddPestPreset)
	api.DELETE("/presets/pests/:id", s.handleDeletePestPreset)

	api.POST("/advice", s.handleAdvice)
	api.GET("/reports/financials", s.handleFinancials)
	api.GET("/reports/financials.xlsx", s.handleFinancialsXLSX)
}
