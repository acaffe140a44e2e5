package controllers

import (
	"errors"

	"github.com/publora/publora/pkg/domain"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// writeError maps a service error to the HTTP response. FlowErrors carry
// their own code; anything else is an internal failure and the details stay
// in the logs.
func writeError(c fiber.Ctx, err error) error {
	var flowErr *domain.FlowError
	if errors.As(err, &flowErr) {
		return c.Status(domain.HTTPStatusOf(flowErr.Code)).JSON(fiber.Map{
			"error":   flowErr.Code,
			"message": flowErr.Message,
		})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": domain.ErrorCode_StorageFailed,
	})
}

func writeErrorCode(c fiber.Ctx, code domain.ErrorCode, message string) error {
	return c.Status(domain.HTTPStatusOf(code)).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}
