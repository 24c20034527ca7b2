package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/innerlog/internal/cli"
	"github.com/julianstephens/innerlog/internal/config"
	"github.com/julianstephens/innerlog/internal/logger"
	"github.com/julianstephens/innerlog/internal/server"
)

type ServeCmd struct {
	ConfigDir string `help:"Directory containing innerlog.env." type:"path" default:"${server_config}"`
	Port      string `help:"Listen port, overriding PORT."`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(cmd.ConfigDir)
	if err != nil {
		return err
	}
	if cmd.Port != "" {
		cfg.Port = cmd.Port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter *server.RateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(runCtx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis not reachable, feedback rate limiting will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		limiter = server.NewRateLimiter(client)
	} else {
		logger.Info("REDIS_ADDR not set, feedback rate limiting disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := server.NewHandler(ctx.Ledger, cli.NewFeedbackService(cfg.GeminiAPIKey, cfg.GeminiModel))
	router := server.NewRouter(handler, server.RouterConfig{
		AllowedOrigins:    cfg.Origins(),
		Tokens:            server.NewTokenManager(cfg.JWTSecret),
		Limiter:           limiter,
		FeedbackRateLimit: cfg.FeedbackRateLimit,
	})

	ctx.Printf("innerlog API listening on %s\n", server.Addr(cfg.Port))
	return server.New(server.Addr(cfg.Port), router).Run(runCtx)
}

// TokenCmd issues a bearer token for local testing of the HTTP API
type TokenCmd struct {
	cli.UserFlag
	ConfigDir string        `help:"Directory containing innerlog.env." type:"path" default:"${server_config}"`
	TTL       time.Duration `help:"Token lifetime." default:"24h"`
}

func (cmd *TokenCmd) Run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(cmd.ConfigDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}
	if cmd.TTL <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	token, err := server.NewTokenManager(cfg.JWTSecret).Generate(cmd.User, cmd.TTL)
	if err != nil {
		return err
	}
	ctx.Println(token)
	return nil
}
