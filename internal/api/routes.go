package api

import "github.com/gin-gonic/gin"

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/market", handler.GetMarket)
		api.GET("/zones", handler.ListZones)
		api.GET("/zones.geojson", handler.GetZonesGeoJSON)
		api.GET("/zones/:zone", handler.GetZone)
		api.GET("/debt-service", handler.GetDebtService)
		api.POST("/evaluate", handler.Evaluate)
		api.GET("/evaluations", handler.ListEvaluations)
		api.GET("/evaluations/:id", handler.GetEvaluation)
	}
}
