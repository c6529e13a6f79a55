package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/common"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/middleware"
	"github.com/vigil-sec/vigil/pkg/types"
)

type (
	GateServerDI struct {
		MiddlewareTransport middleware.Transport
		Config              *config.Config
		Logger              *logrus.Logger
	}

	// GateServer is the hot-path listener. Every request passes through the
	// admission middleware; requests that survive it are answered with the
	// decision payload, so the server can sit behind nginx auth_request or
	// any forward-auth style proxy.
	GateServer struct {
		*BaseServer
		middlewareTransport middleware.Transport
	}
)

func NewGateServer(di GateServerDI) *GateServer {
	return &GateServer{
		BaseServer:          NewBaseServer(di.Config, di.Logger),
		middlewareTransport: di.MiddlewareTransport,
	}
}

func (s *GateServer) Run() error {
	s.setupHealthCheck()
	s.setupRoutes()
	addr := fmt.Sprintf(":%d", s.config.Server.ProxyPort)
	s.logger.WithField("addr", addr).Info("starting gate server")
	return s.router.Listen(addr)
}

func (s *GateServer) setupRoutes() {
	s.router.Use(recover.New())
	s.router.Use(s.middlewareTransport.SecurityMiddleware.Middleware())

	s.router.All("/*", func(c *fiber.Ctx) error {
		decision, ok := c.Locals(common.DecisionContextKey).(*types.Decision)
		if !ok {
			s.logger.Error("decision not found in context")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "decision not found"})
		}
		return c.JSON(decision)
	})
}

func (s *GateServer) Shutdown() error {
	return s.router.Shutdown()
}
