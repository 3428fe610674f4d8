package middleware

import (
	"errors"
	"log"
	"sync"
	"time"

	"payego/internal/adapters/persistence/models"
	"payego/internal/adapters/persistence/repositories"
	"payego/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// IdempotencyHeader carries the client's replay protection key
const IdempotencyHeader = "Idempotency-Key"

// ReplayedHeader is set on responses served from the idempotency store
const ReplayedHeader = "Idempotent-Replayed"

// Idempotency replays the stored response of a keyed request instead of
// running it again. Requests without a key pass through. Server errors are
// not stored, so a retry after a 5xx runs the handler again.
// It must run after AuthMiddleware; keys are scoped per user.
func Idempotency(repo repositories.IdempotencyRepository) fiber.Handler {
	var (
		mu       sync.Mutex
		inFlight = make(map[string]struct{})
	)

	return func(c *fiber.Ctx) error {
		key := utils.CopyString(c.Get(IdempotencyHeader))
		if key == "" || c.Method() == fiber.MethodGet {
			return c.Next()
		}

		uid, _ := c.Locals("userID").(string)
		method, path := utils.CopyString(c.Method()), utils.CopyString(c.Path())
		scope := models.IdempotencyScope(uid, method, path, key)

		// 1. Replay a stored outcome
		rec, err := repo.Get(c.Context(), scope)
		switch {
		case err == nil:
			c.Set(ReplayedHeader, "true")
			c.Set(fiber.HeaderContentType, rec.ContentType)
			return c.Status(rec.Status).Send(rec.Body)
		case !errors.Is(err, repositories.ErrRecordNotFound):
			return err
		}

		// 2. Reject a concurrent duplicate
		mu.Lock()
		if _, busy := inFlight[scope]; busy {
			mu.Unlock()
			return response.Conflict(c, "A request with this Idempotency-Key is already in progress")
		}
		inFlight[scope] = struct{}{}
		mu.Unlock()
		defer func() {
			mu.Lock()
			delete(inFlight, scope)
			mu.Unlock()
		}()

		// 3. Run and store
		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		if err := repo.Save(c.Context(), &models.Idempotency{
			Scope:       scope,
			Key:         key,
			UserID:      uid,
			Method:      method,
			Path:        path,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
			CreatedAt:   time.Now(),
		}); err != nil {
			log.Printf("⚠️ Failed to store idempotent response: %v", err)
		}
		return nil
	}
}
