package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"echodub/internal/handler"
)

func SetupRouter(r *gin.Engine, hdl *handler.Handler) {
	api := r.Group("/api")
	{
		api.POST("/dub/task", hdl.StartDubTask)
		api.GET("/dub/task", hdl.GetDubTask)
		api.GET("/dub/history", hdl.GetTaskHistory)
		api.DELETE("/dub/task/:taskId", hdl.DeleteTask)
		api.POST("/dub/task/:taskId/retry", hdl.RetryTask)
		api.GET("/dub/task/:taskId/subtitles", hdl.GetTaskSubtitles)
		api.GET("/dub/task/:taskId/events", hdl.TaskEvents)
		api.GET("/config", hdl.GetConfig)
		api.POST("/config", hdl.UpdateConfig)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
