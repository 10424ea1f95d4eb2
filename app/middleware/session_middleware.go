package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"interview/session"
)

const (
	SessionHeader = "X-Session-ID"
	SessionQuery  = "session_id"

	sessionKey = "session"
)

// SessionNotFoundError reports an unknown or expired session id.
type SessionNotFoundError struct {
	ID string
}

func (e SessionNotFoundError) Error() string {
	return "session " + e.ID + " not found or expired"
}

func (e SessionNotFoundError) Unwrap() error {
	return session.ErrNotFound
}

// Session resolves the interview session from the X-Session-ID header or
// the session_id query parameter and stores it in the request locals.
func Session(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(SessionHeader)
		if id == "" {
			id = c.Query(SessionQuery)
		}
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "session id required in "+SessionHeader+" header")
		}

		sess, err := store.Get(id)
		if errors.Is(err, session.ErrNotFound) {
			return SessionNotFoundError{ID: id}
		}
		if err != nil {
			return err
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// CurrentSession returns the session stored by Session, or nil.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(sessionKey).(*session.Session)
	return sess
}
