package credential

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// MaxAttempts per user within AttemptWindow.
	MaxAttempts = 5
	// AttemptWindow is the lifetime of the attempt counter.
	AttemptWindow = time.Hour

	attemptKeyPrefix = "upmail_validation_attempts_"
)

// ErrTooManyAttempts is returned once a user used up MaxAttempts.
var ErrTooManyAttempts = errors.New("too many validation attempts, please try again later")

// RateLimiter counts API key validation attempts per user in a fiber storage.
// Every counted attempt restarts the window.
type RateLimiter struct {
	storage fiber.Storage
	max     int
	window  time.Duration
}

// NewRateLimiter uses MaxAttempts and AttemptWindow.
func NewRateLimiter(storage fiber.Storage) *RateLimiter {
	return &RateLimiter{storage: storage, max: MaxAttempts, window: AttemptWindow}
}

func attemptKey(user string) string {
	return attemptKeyPrefix + user
}

// Allow counts one attempt for user and refuses it once more than MaxAttempts were made.
func (r *RateLimiter) Allow(user string) error {
	key := attemptKey(user)

	raw, err := r.storage.Get(key)
	if err != nil {
		return err //nolint:wrapcheck
	}

	attempts, _ := strconv.Atoi(string(raw))
	if attempts >= r.max {
		return ErrTooManyAttempts
	}

	return r.storage.Set(key, []byte(strconv.Itoa(attempts+1)), r.window) //nolint:wrapcheck
}

// Reset clears the counter of user.
func (r *RateLimiter) Reset(user string) error {
	return r.storage.Delete(attemptKey(user)) //nolint:wrapcheck
}
