package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
)

type getConfigHandler struct {
	logger *logrus.Logger
	cfg    *config.Manager
}

func NewGetConfigHandler(logger *logrus.Logger, cfg *config.Manager) Handler {
	return &getConfigHandler{logger: logger, cfg: cfg}
}

func (h *getConfigHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(h.cfg.Engine())
}
