package server

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
	handlers "github.com/vigil-sec/vigil/pkg/handlers/http"
)

type (
	AdminServerDI struct {
		HandlerTransport handlers.HandlerTransport
		Config           *config.Config
		Logger           *logrus.Logger
	}
	AdminServer struct {
		*BaseServer
		handlerTransport handlers.HandlerTransport
	}
)

func NewAdminServer(di AdminServerDI) *AdminServer {
	return &AdminServer{
		BaseServer:       NewBaseServer(di.Config, di.Logger),
		handlerTransport: di.HandlerTransport,
	}
}

func (s *AdminServer) Run() error {
	s.setupRoutes()
	s.setupHealthCheck()
	addr := fmt.Sprintf(":%d", s.config.Server.AdminPort)
	s.logger.WithField("addr", addr).Info("starting admin server")
	return s.router.Listen(addr)
}

func (s *AdminServer) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.Post("/whitelist", s.handlerTransport.AddWhitelistHandler.Handle)
		v1.Delete("/whitelist/:ip", s.handlerTransport.RemoveWhitelistHandler.Handle)
		v1.Post("/blacklist", s.handlerTransport.AddBlacklistHandler.Handle)

		rules := v1.Group("/rules")
		{
			rules.Post("/:name/enable", s.handlerTransport.EnableRuleHandler.Handle)
			rules.Post("/:name/disable", s.handlerTransport.DisableRuleHandler.Handle)
		}

		v1.Get("/config", s.handlerTransport.GetConfigHandler.Handle)
		v1.Put("/config", s.handlerTransport.UpdateConfigHandler.Handle)

		v1.Post("/fingerprints/:id/block", s.handlerTransport.BlockFingerprintHandler.Handle)
		v1.Get("/suspicion/:id", s.handlerTransport.GetSuspicionHandler.Handle)
	}
}

func (s *AdminServer) Shutdown() error {
	return s.router.Shutdown()
}
