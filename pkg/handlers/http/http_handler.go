package http

import "github.com/gofiber/fiber/v2"

type Handler interface {
	Handle(ctx *fiber.Ctx) error
}

type HandlerTransport struct {
	// Lists
	AddWhitelistHandler    Handler
	RemoveWhitelistHandler Handler
	AddBlacklistHandler    Handler

	// Rules
	EnableRuleHandler  Handler
	DisableRuleHandler Handler

	// Config
	GetConfigHandler    Handler
	UpdateConfigHandler Handler

	// Fingerprints
	BlockFingerprintHandler Handler

	// Suspicion
	GetSuspicionHandler Handler
}

const ErrInvalidJsonPayload = "invalid json payload"
