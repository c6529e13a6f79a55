package middleware

import (
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
	"github.com/vigil-sec/vigil/pkg/common"
	"github.com/vigil-sec/vigil/pkg/types"
)

// SignalExtractor normalizes a fiber request into a RequestSignal.
type SignalExtractor struct {
	logger *logrus.Logger
}

func NewSignalExtractor(logger *logrus.Logger) *SignalExtractor {
	return &SignalExtractor{logger: logger}
}

func (e *SignalExtractor) Extract(c *fiber.Ctx) *types.RequestSignal {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[strings.ToLower(string(key))] = string(value)
	})

	return &types.RequestSignal{
		IP:          e.clientIP(c),
		UserAgent:   c.Get(fiber.HeaderUserAgent),
		Headers:     headers,
		Email:       e.extractEmail(c),
		Endpoint:    c.Path(),
		Method:      c.Method(),
		Fingerprint: c.Get(common.FingerprintHeader),
		Timestamp:   time.Now(),
	}
}

// clientIP walks the proxy headers in preference order and returns the first
// well-formed public address; a well-formed private address is kept as a
// fallback so direct LAN traffic still gets attributed.
func (e *SignalExtractor) clientIP(c *fiber.Ctx) string {
	candidates := []string{
		c.Get("CF-Connecting-IP"),
		firstForwardedFor(c.Get(fiber.HeaderXForwardedFor)),
		c.Get("X-Real-IP"),
		c.IP(),
	}

	fallback := ""
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		ip := net.ParseIP(candidate)
		if ip == nil {
			continue
		}
		if isPublic(ip) {
			return candidate
		}
		if fallback == "" {
			fallback = candidate
		}
	}
	if fallback != "" {
		return fallback
	}
	return c.IP()
}

func firstForwardedFor(header string) string {
	if header == "" {
		return ""
	}
	if idx := strings.Index(header, ","); idx >= 0 {
		return header[:idx]
	}
	return header
}

func isPublic(ip net.IP) bool {
	return !ip.IsPrivate() &&
		!ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsUnspecified()
}

// extractEmail pulls an account identifier from the request body when one is
// present: the email or username field of a JSON or form payload.
func (e *SignalExtractor) extractEmail(c *fiber.Ctx) string {
	contentType := string(c.Request().Header.ContentType())

	if strings.Contains(contentType, fiber.MIMEApplicationJSON) && len(c.Body()) > 0 {
		value, err := fastjson.ParseBytes(c.Body())
		if err != nil {
			e.logger.WithError(err).Debug("unparseable json body, skipping email extraction")
			return ""
		}
		if email := string(value.GetStringBytes("email")); email != "" {
			return email
		}
		return string(value.GetStringBytes("username"))
	}

	if strings.Contains(contentType, fiber.MIMEApplicationForm) {
		if email := c.FormValue("email"); email != "" {
			return email
		}
		return c.FormValue("username")
	}

	return ""
}
