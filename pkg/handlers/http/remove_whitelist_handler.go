package http

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

type removeWhitelistHandler struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewRemoveWhitelistHandler(logger *logrus.Logger, store threatstore.Store) Handler {
	return &removeWhitelistHandler{logger: logger, store: store}
}

func (h *removeWhitelistHandler) Handle(c *fiber.Ctx) error {
	ip := c.Params("ip")
	if net.ParseIP(ip) == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ip address"})
	}

	if err := h.store.RemoveFromWhitelist(c.Context(), ip); err != nil {
		h.logger.WithError(err).WithField("ip", ip).Error("failed to remove ip from whitelist")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to remove ip from whitelist"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
