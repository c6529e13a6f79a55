package http

import (
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

const defaultBlacklistTTL = time.Hour

type addBlacklistHandler struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewAddBlacklistHandler(logger *logrus.Logger, store threatstore.Store) Handler {
	return &addBlacklistHandler{logger: logger, store: store}
}

type addBlacklistRequest struct {
	IP         string `json:"ip"`
	Reason     string `json:"reason"`
	TTLSeconds int    `json:"ttl_seconds"`
}

func (h *addBlacklistHandler) Handle(c *fiber.Ctx) error {
	var req addBlacklistRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.WithError(err).Error("failed to bind blacklist request")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
	}

	if net.ParseIP(req.IP) == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid ip address"})
	}
	if req.Reason == "" {
		req.Reason = "Manually blacklisted"
	}

	ttl := defaultBlacklistTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	if err := h.store.AddToBlacklist(c.Context(), req.IP, req.Reason, ttl); err != nil {
		h.logger.WithError(err).WithField("ip", req.IP).Error("failed to blacklist ip")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to blacklist ip"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ip":          req.IP,
		"list":        "blacklist",
		"reason":      req.Reason,
		"ttl_seconds": int(ttl.Seconds()),
	})
}
