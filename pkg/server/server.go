package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/vigil-sec/vigil/pkg/config"
)

// Server is the common behavior for all listeners.
type Server interface {
	Run() error
	Shutdown() error
}

type BaseServer struct {
	config *config.Config
	logger *logrus.Logger
	router *fiber.App
}

func NewBaseServer(cfg *config.Config, logger *logrus.Logger) *BaseServer {
	r := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Network:               fiber.NetworkTCP,
		BodyLimit:             8 * 1024 * 1024,
		ReadTimeout:           60 * time.Second,
		WriteTimeout:          60 * time.Second,
		IdleTimeout:           120 * time.Second,
	})
	r.Server().NoDefaultServerHeader = true

	return &BaseServer{
		config: cfg,
		logger: logger,
		router: r,
	}
}

func (s *BaseServer) setupHealthCheck() {
	s.router.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}

// StartMetricsServer serves /metrics on its own port in a goroutine.
func StartMetricsServer(logger *logrus.Logger, port int) {
	metricsApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	metricsApp.Use(recover.New())

	metricsApp.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	go func() {
		addr := fmt.Sprintf(":%d", port)
		if err := metricsApp.Listen(addr); err != nil {
			if !strings.Contains(err.Error(), "address already in use") {
				logger.WithError(err).Error("failed to start metrics server")
			}
		}
	}()
}
