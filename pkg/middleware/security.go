package middleware

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vigil-sec/vigil/pkg/common"
	"github.com/vigil-sec/vigil/pkg/pipeline"
)

type securityMiddleware struct {
	logger    *logrus.Logger
	pipeline  *pipeline.RiskPipeline
	extractor *SignalExtractor
}

func NewSecurityMiddleware(
	logger *logrus.Logger,
	p *pipeline.RiskPipeline,
	extractor *SignalExtractor,
) Middleware {
	return &securityMiddleware{
		logger:    logger,
		pipeline:  p,
		extractor: extractor,
	}
}

func (m *securityMiddleware) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := uuid.New().String()
		c.Locals(common.TraceIdKey, traceID)

		signal := m.extractor.Extract(c)
		c.Locals(common.SignalContextKey, signal)

		ctx := context.WithValue(c.UserContext(), common.TraceIdKey, traceID)
		c.SetUserContext(ctx)

		decision := m.pipeline.Decide(ctx, signal)
		c.Locals(common.DecisionContextKey, decision)

		if !decision.Allowed {
			c.Set(common.SecurityDecisionHeader, "denied")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":      "request blocked",
				"reason":     decision.Reason,
				"risk_score": decision.RiskScore,
				"timestamp":  decision.Timestamp,
			})
		}

		if decision.ChallengeRequired {
			c.Set(common.ChallengeTypeHeader, string(decision.ChallengeType))
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"challenge_required": true,
				"challenge_type":     decision.ChallengeType,
				"risk_score":         decision.RiskScore,
				"message":            "Additional verification required",
			})
		}

		c.Set(common.SecurityScoreHeader, strconv.FormatFloat(decision.RiskScore, 'f', 2, 64))
		c.Set(common.SecurityDecisionHeader, "allowed")
		return c.Next()
	}
}
