package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/config"
)

type updateConfigHandler struct {
	logger *logrus.Logger
	cfg    *config.Manager
}

func NewUpdateConfigHandler(logger *logrus.Logger, cfg *config.Manager) Handler {
	return &updateConfigHandler{logger: logger, cfg: cfg}
}

type updateConfigRequest struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

func (h *updateConfigHandler) Handle(c *fiber.Ctx) error {
	var req updateConfigRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind config update request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}
	if req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path is required"})
	}

	if err := h.cfg.SetPath(req.Path, req.Value); err != nil {
		h.logger.WithError(err).WithField("path", req.Path).Error("config update rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.WithField("path", req.Path).Info("config updated")
	return c.JSON(h.cfg.Engine())
}
