package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/upmail/upmail/internal/db/models"
)

// CookieName is the name of the login cookie.
const CookieName = "session"

var (
	// Store is the global session store instance.
	Store *session.Store

	// ErrNoSession is returned when a request carries no usable session.
	ErrNoSession = errors.New("no session")
)

// User is the part of an account kept in the session.
type User struct {
	ID       uint64
	Username string
	Email    string
	RoleID   uint
}

// Data represents the session data structure.
type Data struct {
	User User
}

// NewData copies the session relevant fields of u.
func NewData(u *models.User) *Data {
	return &Data{User: User{ID: u.ID, Username: u.Username, Email: u.Email, RoleID: u.RoleID}}
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return Store.Storage.Set(sessionID, out, exp)
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err
	}

	if len(byteData) == 0 {
		return ErrNoSession
	}

	return json.Unmarshal(byteData, s)
}

// Delete removes the session with the given ID.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID)
}

// Current returns the session ID and data of the request.
func Current(c *fiber.Ctx) (string, *Data, error) {
	sessionID := c.Cookies(CookieName)
	if sessionID == "" {
		return "", nil, ErrNoSession
	}

	data := new(Data)
	if err := data.Read(sessionID); err != nil {
		return "", nil, err
	}

	if data.User.ID == 0 {
		return "", nil, ErrNoSession
	}

	return sessionID, data, nil
}

// Init initializes the session store with the provided storage backend.
func Init(storage fiber.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
