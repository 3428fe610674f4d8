package response

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodies(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error { return OK(c, "done") })
	app.Get("/created", func(c *fiber.Ctx) error { return Created(c, fiber.Map{"id": "1"}) })
	app.Get("/conflict", func(c *fiber.Ctx) error { return Conflict(c, "taken") })
	app.Get("/unauthorized", func(c *fiber.Ctx) error { return Unauthorized(c, "no token") })
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return Invalid(c, FieldError{Field: "email", Message: "email is required"})
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return InternalServerError(c, "boom") })

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/ok", 200, `{"message":"done"}`},
		{"/created", 201, `{"id":"1"}`},
		{"/conflict", 409, `{"message":"taken"}`},
		{"/unauthorized", 401, `{"error":"no token"}`},
		{"/invalid", 422, `{"errors":[{"field":"email","message":"email is required"}]}`},
		{"/boom", 500, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.JSONEq(t, tt.body, string(body))
		})
	}
}
