package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

const defaultFingerprintBlockTTL = 24 * time.Hour

type blockFingerprintHandler struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewBlockFingerprintHandler(logger *logrus.Logger, store threatstore.Store) Handler {
	return &blockFingerprintHandler{logger: logger, store: store}
}

type blockFingerprintRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

func (h *blockFingerprintHandler) Handle(c *fiber.Ctx) error {
	fingerprint := c.Params("id")
	if fingerprint == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "fingerprint id is required"})
	}

	var req blockFingerprintRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			h.logger.WithError(err).Error("failed to bind fingerprint block request")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidJsonPayload})
		}
	}

	ttl := defaultFingerprintBlockTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	if err := h.store.BlockFingerprint(c.Context(), fingerprint, ttl); err != nil {
		h.logger.WithError(err).WithField("fingerprint", fingerprint).Error("failed to block fingerprint")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to block fingerprint"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"fingerprint": fingerprint,
		"blocked":     true,
		"ttl_seconds": int(ttl.Seconds()),
	})
}
