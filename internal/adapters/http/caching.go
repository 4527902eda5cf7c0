package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cachePolicy returns the Cache-Control value for a GET path. Challenge
// state and player progress change on every interaction and are never
// shared.
func cachePolicy(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/v1/challenges/"), strings.HasPrefix(path, "/v1/players/"):
		return "no-store"
	case strings.HasPrefix(path, "/v1/levels"):
		return "public, max-age=600"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=60"
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses that did not set
// their own, and answers conditional requests for shareable responses with
// a weak ETag.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() != fiber.MethodGet {
			return err
		}

		policy := string(c.Response().Header.Peek(fiber.HeaderCacheControl))
		if policy == "" {
			policy = cachePolicy(c.Path())
			if policy != "" {
				c.Set(fiber.HeaderCacheControl, policy)
			}
		}
		if !strings.HasPrefix(policy, "public") || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}
		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}
