package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
	"github.com/vigil-sec/vigil/pkg/detectors/behavior"
	"github.com/vigil-sec/vigil/pkg/detectors/bot"
	"github.com/vigil-sec/vigil/pkg/detectors/email"
	"github.com/vigil-sec/vigil/pkg/detectors/fingerprintcheck"
	"github.com/vigil-sec/vigil/pkg/detectors/ratelimit"
)

var knownRules = map[string]bool{
	ratelimit.DetectorName:        true,
	bot.DetectorName:              true,
	behavior.DetectorName:         true,
	email.DetectorName:            true,
	fingerprintcheck.DetectorName: true,
}

type enableRuleHandler struct {
	logger *logrus.Logger
	cfg    *config.Manager
}

func NewEnableRuleHandler(logger *logrus.Logger, cfg *config.Manager) Handler {
	return &enableRuleHandler{logger: logger, cfg: cfg}
}

func (h *enableRuleHandler) Handle(c *fiber.Ctx) error {
	name := c.Params("name")
	if !knownRules[name] {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown rule"})
	}

	h.cfg.EnableRule(name)
	h.logger.WithField("rule", name).Info("rule enabled")
	return c.JSON(fiber.Map{"rule": name, "enabled": true})
}
