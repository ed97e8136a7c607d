package panel

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"quranbot/internal/logger"
)

// logOutcome classifies a render result into the distinct failure modes the
// refresh pipeline cares about. Every branch only logs; the panel stays in
// its last rendered state and the next state change gets a fresh attempt.
func logOutcome(reason string, err error) {
	if err == nil {
		logger.Debug().Str("reason", reason).Msg("panel refreshed")
		return
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		logger.Error().Str("reason", reason).Err(err).Msg("panel refresh cancelled before completing")
		return
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		logger.Warn().
			Str("reason", reason).
			Dur("retry_after", rateErr.RetryAfter).
			Msg("panel refresh rate limited")
		return
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			logger.Warn().Str("reason", reason).Msg("panel message or channel no longer exists")
		case http.StatusForbidden:
			logger.Warn().Str("reason", reason).Msg("panel refresh forbidden, permissions revoked")
		case http.StatusTooManyRequests:
			logger.Warn().Str("reason", reason).Msg("panel refresh rate limited")
		default:
			logger.Error().
				Str("reason", reason).
				Int("status", restErr.Response.StatusCode).
				Msg("panel refresh failed with HTTP error")
		}
		return
	}

	logger.Error().Str("reason", reason).Err(err).Msg("panel refresh failed")
}
