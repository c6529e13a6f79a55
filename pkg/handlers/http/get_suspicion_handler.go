package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/infra/threatstore"
)

type getSuspicionHandler struct {
	logger *logrus.Logger
	store  threatstore.Store
}

func NewGetSuspicionHandler(logger *logrus.Logger, store threatstore.Store) Handler {
	return &getSuspicionHandler{logger: logger, store: store}
}

func (h *getSuspicionHandler) Handle(c *fiber.Ctx) error {
	identifier := c.Params("id")
	if identifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "identifier is required"})
	}

	score, err := h.store.SuspicionScore(c.Context(), identifier)
	if err != nil {
		h.logger.WithError(err).WithField("identifier", identifier).Error("failed to read suspicion score")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read suspicion score"})
	}

	suspicious, err := h.store.IsSuspicious(c.Context(), identifier)
	if err != nil {
		h.logger.WithError(err).WithField("identifier", identifier).Error("failed to evaluate suspicion")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to evaluate suspicion"})
	}

	return c.JSON(fiber.Map{
		"identifier": identifier,
		"score":      score,
		"suspicious": suspicious,
	})
}
