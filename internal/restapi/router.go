package restapi

import (
	"net/http"
	"net/http/pprof"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires every endpoint onto a gin engine.
func SetupRouter(h *Handlers) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/chains", h.GetChains)
		v1.GET("/chains/:id/bridgeable", h.GetBridgeableTokens)
		v1.GET("/portfolio/:address", h.GetPortfolio)

		session := v1.Group("/session")
		{
			session.GET("", h.GetSession)
			session.POST("/connect", h.Connect)
			session.POST("/restore", h.RestoreSession)
			session.POST("/disconnect", h.Disconnect)
			session.POST("/chain", h.SwitchChain)
		}

		bridge := v1.Group("/bridge")
		{
			bridge.POST("/quote", h.Quote)
			bridge.POST("/execute", h.Execute)
		}

		v1.GET("/prefs/route", h.GetLastRoute)
	}

	router.GET("/healthz", h.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	debug := router.Group("/debug/pprof")
	{
		debug.GET("/", gin.WrapF(pprof.Index))
		debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		debug.GET("/profile", gin.WrapF(pprof.Profile))
		debug.GET("/symbol", gin.WrapF(pprof.Symbol))
		debug.GET("/trace", gin.WrapF(pprof.Trace))
		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			debug.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "unknown endpoint"})
	})
	return router
}
