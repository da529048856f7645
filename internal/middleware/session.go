package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	SessionCookie = "uti_session"
	SessionHeader = "X-Session-ID"
	SessionIDKey  = "sessionID"
)

// Session attaches an anonymous session id to every request, issuing a new one
// as a cookie when the client sent none. The id scopes local history and is
// read by background saves after the request ends, so it never aliases the
// request buffer.
func Session(ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(SessionHeader))
		if id == "" {
			id = c.Cookies(SessionCookie)
		}
		if _, err := uuid.Parse(id); err == nil {
			id = utils.CopyString(id)
		} else {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Set(SessionHeader, id)
		c.Locals(SessionIDKey, id)
		return c.Next()
	}
}

// SessionID returns the session id set by Session.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionIDKey).(string)
	return id
}
