package credential

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/uptools"
)

// ErrKeyEmpty is recorded as the status error when no key is stored.
const ErrKeyEmpty = "API key is empty"

// Result is reported back to the admin UI.
type Result struct {
	Success bool   `json:"success"`
	IsValid bool   `json:"is_valid"`
	Message string `json:"message"`
}

// Validator checks keys against the API.
type Validator struct {
	BaseURL string
	Timeout time.Duration
	Now     func() time.Time
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}

	return v.Now()
}

// Validate asks the API whether key is accepted. With store set the outcome
// is saved as the validation status, a failed call counting as invalid.
func (v *Validator) Validate(ctx context.Context, db *gorm.DB, key string, store bool) Result {
	valid, err := uptools.New(v.BaseURL, key, uptools.WithValidateTimeout(v.Timeout)).ValidateKey(ctx)

	if store {
		status := Status{IsValid: err == nil && valid, LastCheck: v.now()}

		switch {
		case err != nil:
			status.Error = err.Error()
		case !valid:
			status.Error = "API key is invalid"
		}

		if serr := StoreStatus(db, status); serr != nil {
			log.Error().Err(serr).Msg("failed to store API key status")
		}
	}

	switch {
	case err != nil:
		log.Warn().Err(err).Msg("API key validation failed")
		return Result{Message: err.Error()}
	case valid:
		return Result{Success: true, IsValid: true, Message: "API key is valid."}
	default:
		return Result{Success: true, Message: "API key is invalid."}
	}
}

// Accept stores key and records it as valid. Call it only for a key Validate accepted.
func (v *Validator) Accept(db *gorm.DB, store *Store, key string) error {
	if err := store.SetAPIKey(db, key); err != nil {
		return err
	}

	return StoreStatus(db, Status{IsValid: true, LastCheck: v.now()})
}

// Revalidate re-checks the stored key and records the outcome.
// Without a stored key the status is recorded as invalid with ErrKeyEmpty.
func (v *Validator) Revalidate(ctx context.Context, db *gorm.DB, store *Store) (Result, error) {
	key, err := store.APIKey(db)
	if err != nil {
		return Result{}, err
	}

	if key == "" {
		if err := StoreStatus(db, Status{LastCheck: v.now(), Error: ErrKeyEmpty}); err != nil {
			return Result{}, err
		}

		return Result{Success: true, Message: ErrKeyEmpty + "."}, nil
	}

	return v.Validate(ctx, db, key, true), nil
}
