package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/core/logger"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Burst is the number of updates allowed back to back; values below 1 mean 1.
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc

	now func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware returns a middleware that allows one update per Interval
// from the same user, with short bursts up to Burst. It keeps /start spam from
// flooding the administrator with approval prompts.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}
	var (
		visitors  = make(map[int64]*visitor)
		mu        sync.Mutex
		lastSweep time.Time
	)
	expiry := 10 * opts.Interval
	if expiry < time.Minute {
		expiry = time.Minute
	}

	allow := func(userID int64, at time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if at.Sub(lastSweep) > expiry {
			for id, v := range visitors {
				if at.Sub(v.lastSeen) > expiry {
					delete(visitors, id)
				}
			}
			lastSweep = at
		}
		v, ok := visitors[userID]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Every(opts.Interval), burst)}
			visitors[userID] = v
		}
		v.lastSeen = at
		return v.limiter.AllowN(at, 1)
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}

			// Determine update kind and apply configured exclusions
			upd := c.Update()
			kind := "other"
			switch {
			case upd.Callback != nil:
				kind = coreconfig.UpdateCallback
			case upd.Message != nil:
				kind = coreconfig.UpdateMessage
			}
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			if !allow(user.ID, now()) {
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "tg.rate_limit",
					slog.String("outcome", "rate_limited"),
					slog.String("mode", kind),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
