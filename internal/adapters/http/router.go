package http

import (
	"context"
	"io"
	"net/http"

	"github.com/dkeye/Coordinator/internal/adapters/rpc"
	"github.com/dkeye/Coordinator/internal/adapters/signal"
	"github.com/dkeye/Coordinator/internal/app/orch"
	"github.com/dkeye/Coordinator/internal/auth"
	"github.com/dkeye/Coordinator/internal/config"
	"github.com/dkeye/Coordinator/internal/domain"
	"github.com/dkeye/Coordinator/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultBodyLimit = 1 << 16

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	dispatcher := rpc.NewDispatcher(o)
	tokens := auth.New(cfg.Auth.ServiceSecret, cfg.Auth.Issuer)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if ctx.Err() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	log.Info().
		Str("module", "adapters.http").
		Bool("service_auth", tokens.Enabled()).
		Int("methods", len(dispatcher.Methods())).
		Msg("router setup")

	bodyLimit := cfg.ReadLimit
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	api := r.Group("/rpc", ServiceAuthMiddleware(tokens))

	ctrl := signal.NewRPCController(dispatcher, cfg)
	api.GET("/ws", func(c *gin.Context) {
		ctrl.HandleRPC(ctx, c)
	})
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"methods": dispatcher.Methods()})
	})
	api.POST("/:method", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, bodyLimit))
		if err != nil {
			writeError(c, domain.ErrInvalidArgument)
			return
		}
		res, err := dispatcher.Call(c.Request.Context(), c.Param("method"), body)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"result": res})
	})

	// Read-only views for operators.
	rooms := r.Group("/api/rooms", ServiceAuthMiddleware(tokens))
	rooms.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.ListRooms()})
	})
	rooms.GET("/:id", func(c *gin.Context) {
		snap, err := o.GetRoom(domain.RoomID(c.Param("id")))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	return r
}

func writeError(c *gin.Context, err error) {
	c.JSON(rpc.HTTPStatus(err), gin.H{"error": rpc.ErrorOf(err)})
}
