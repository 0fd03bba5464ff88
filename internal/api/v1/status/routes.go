package status

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/status", h.GetStatus)
	router.GET("/health", h.Health)
}
