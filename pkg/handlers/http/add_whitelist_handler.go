package http

import (
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

type addWhitelistHandler struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewAddWhitelistHandler(logger *logrus.Logger, store threatstore.Store) Handler {
	return &addWhitelistHandler{logger: logger, store: store}
}

type addWhitelistRequest struct {
	IP string `json:"ip"`
}

func (h *addWhitelistHandler) Handle(c *fiber.Ctx) error {
	var req addWhitelistRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind whitelist request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	if net.ParseIP(req.IP) == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ip address"})
	}

	if err := h.store.AddToWhitelist(c.Context(), req.IP); err != nil {
		h.logger.WithError(err).WithField("ip", req.IP).Error("failed to whitelist ip")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to whitelist ip"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ip": req.IP, "list": "whitelist"})
}
