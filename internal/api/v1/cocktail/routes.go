package cocktail

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the cocktail endpoints. limit guards the endpoints
// that call paid upstream services.
func RegisterRoutes(router *gin.RouterGroup, h *Handler, limit gin.HandlerFunc) {
	cocktails := router.Group("/cocktails")
	{
		cocktails.POST("/generate", limit, h.GenerateCocktail)
		cocktails.POST("/generate-image", limit, h.GenerateImage)
		cocktails.GET("", h.ListCocktails)
		cocktails.GET("/search", h.SearchCocktails)
		cocktails.GET("/stats", h.GetStats)
		cocktails.GET("/recent", h.RecentCocktails)
		cocktails.GET("/:id", h.GetCocktail)
		cocktails.DELETE("/:id", h.DeleteCocktail)
		cocktails.POST("/:id/image", limit, h.GenerateImageForCocktail)
	}
}
