package response

import "github.com/gofiber/fiber/v2"

// Message is the {"message": ...} body.
type Message struct {
	Message string `json:"message"`
}

// Failure is the {"error": ...} body.
type Failure struct {
	Error string `json:"error"`
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Validation is the {"errors": [...]} body.
type Validation struct {
	Errors []FieldError `json:"errors"`
}

// Success sends a 200 response with data as the body
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(data)
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// OK sends a 200 response with a message body
func OK(c *fiber.Ctx, message string) error {
	return c.JSON(Message{Message: message})
}

// Error sends an error response with a message body
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Message{Message: message})
}

// ErrorField sends an error response using the "error" key
func ErrorField(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Failure{Error: message})
}

// Invalid sends a 422 response listing field errors
func Invalid(c *fiber.Ctx, errs ...FieldError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Validation{Errors: errs})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return ErrorField(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return ErrorField(c, fiber.StatusInternalServerError, message)
}
