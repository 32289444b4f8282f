// Package gate exposes the validation gate over HTTP: URL
// canonicalization, event/URL validation, and per-identity rate
// limiting for the scraper fleet.
package gate

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tokenhunter-event-gate/config"
	"tokenhunter-event-gate/internal/ratelimit"
	"tokenhunter-event-gate/internal/urlnorm"
	"tokenhunter-event-gate/internal/validate"
)

func NewNormalizer(cfg *config.Config, logger *zap.SugaredLogger) *urlnorm.Normalizer {
	return urlnorm.NewNormalizer(urlnorm.Config{
		Timeout:      cfg.Gate.HTTPTimeout,
		MaxRedirects: cfg.Gate.MaxRedirects,
		UserAgent:    cfg.Gate.UserAgent,
	}, logger)
}

func NewDeduplicator(norm *urlnorm.Normalizer) *urlnorm.Deduplicator {
	return urlnorm.NewDeduplicator(norm)
}

type NewURLValidatorParams struct {
	fx.In

	Cfg    *config.Config
	Redis  *redis.Client `optional:"true"`
	Logger *zap.SugaredLogger
}

func NewURLValidator(p NewURLValidatorParams) *validate.URLValidator {
	return validate.NewURLValidator(validate.Config{
		CacheTTL:  p.Cfg.Gate.CacheTTL,
		Timeout:   p.Cfg.Gate.HTTPTimeout,
		UserAgent: p.Cfg.Gate.UserAgent,
	}, p.Redis, p.Logger)
}

func NewEventValidator(urls *validate.URLValidator, logger *zap.SugaredLogger) *validate.EventValidator {
	return validate.NewEventValidator(urls, logger)
}

func NewRateLimitManager(cfg *config.Config) *ratelimit.Manager {
	return ratelimit.NewManager(cfg.Gate.RateLimitMaxCalls, cfg.Gate.RateLimitPeriod)
}
