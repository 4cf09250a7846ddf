package router

import (
	"github.com/daypilot/internal/db"
	"github.com/daypilot/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("daypilot_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(db.DB)

	r.POST("/api/login", handler.Login)
	r.POST("/api/logout", handler.Logout)

	// 需要认证的 API 路由
	auth := r.Group("/api")
	auth.Use(handler.AuthRequired())
	{
		auth.POST("/daily-plan/generate", api.GeneratePlan)
		auth.GET("/daily-plan", api.GetPlanByDate)
		auth.DELETE("/daily-plan/:id", api.DeletePlan)
		auth.GET("/daily-plan/:id/stats", api.GetPlanStats)
		auth.GET("/daily-plan/:id/note", api.GetPlanNote)
		auth.PUT("/daily-plan/:id/note", api.UpdatePlanNote)

		auth.POST("/time-blocks/:id/complete", api.CompleteBlock)
		auth.POST("/time-blocks/:id/uncomplete", api.UncompleteBlock)
		auth.POST("/time-blocks/:id/skip", api.SkipBlock)

		auth.POST("/exit-times/compute", api.ComputeExitTime)
		auth.POST("/exit-times/compare", api.CompareExitTimes)

		auth.GET("/exit-gate/template", api.GetGateTemplate)
		auth.PUT("/exit-gate/template", api.UpdateGateTemplate)
		auth.POST("/exit-gate/evaluate", api.EvaluateGate)

		auth.GET("/stores", api.ListStores)
		auth.POST("/stores", api.CreateStore)
		auth.POST("/shopping/optimize", api.OptimizeShopping)

		auth.GET("/routines", api.ListRoutines)
		auth.POST("/routines", api.CreateRoutine)
		auth.PUT("/routines/:id", api.UpdateRoutine)
		auth.DELETE("/routines/:id", api.DeleteRoutine)
	}

	return r
}
