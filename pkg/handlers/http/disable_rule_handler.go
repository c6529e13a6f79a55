package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
)

type disableRuleHandler struct {
	logger *logrus.Logger
	cfg    *config.Manager
}

func NewDisableRuleHandler(logger *logrus.Logger, cfg *config.Manager) Handler {
	return &disableRuleHandler{logger: logger, cfg: cfg}
}

func (h *disableRuleHandler) Handle(c *fiber.Ctx) error {
	name := c.Params("name")
	if !knownRules[name] {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown rule"})
	}

	h.cfg.DisableRule(name)
	h.logger.WithField("rule", name).Info("rule disabled")
	return c.JSON(fiber.Map{"rule": name, "enabled": false})
}
