package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	natsadapter "github.com/samirrijal/cityhunt/internal/adapters/nats"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Orientation events arrive several times a second while a view is open,
	// so the per-IP budget is higher than a plain REST API needs.
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			return websocket.IsWebSocketUpgrade(c)
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/levels", timeout.NewWithContext(ListLevelsHandler(deps), requestTimeout))
	v1.Get("/levels/:id", timeout.NewWithContext(GetLevelHandler(deps), requestTimeout))
	v1.Post("/levels/:id/verify", timeout.NewWithContext(VerifyLevelHandler(deps), requestTimeout))
	v1.Post("/levels/:id/location-challenge", timeout.NewWithContext(LocationChallengeHandler(deps), requestTimeout))
	v1.Get("/players/:id/progress", timeout.NewWithContext(PlayerProgressHandler(deps), requestTimeout))

	v1.Post("/challenges/ar", timeout.NewWithContext(StartArChallengeHandler(deps), requestTimeout))
	v1.Get("/challenges/ar/:id", GetChallengeHandler(deps))
	v1.Delete("/challenges/ar/:id", AbandonHandler(deps))
	v1.Post("/challenges/ar/:id/orientation", OrientationHandler(deps))
	v1.Post("/challenges/ar/:id/permission", PermissionHandler(deps))
	v1.Post("/challenges/ar/:id/capture/:target", timeout.NewWithContext(CaptureHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, deps.SpecPath)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/challenges/:id", websocket.New(ChallengeSocketHandler(deps)))
	app.Get("/ws/events", websocket.New(EventSocketHandler(deps.NATS, natsadapter.SubjectBroadcast)))
}
