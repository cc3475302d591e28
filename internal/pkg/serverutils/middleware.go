package serverutils

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalAuthToken = "auth_token"
	LocalUserID    = "user_id"
)

// ErrorHandlerMiddleware turns errors returned by handlers into envelopes.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		if errors.As(err, &verr) {
			res := ErrorResponse(fiber.StatusBadRequest, "Invalid request")
			res.Errors = verr.Fields
			return ctx.Status(fiber.StatusBadRequest).JSON(res)
		}

		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return ctx.Status(ferr.Code).JSON(ErrorResponse(ferr.Code, ferr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}

// AuthTokenMiddleware extracts the caller's record-service token from a
// Bearer or Token Authorization header. The token is not verified here; the
// record service does that. When it is a JWT its user id is kept for logs.
func AuthTokenMiddleware(ctx *fiber.Ctx) error {
	token := BearerToken(ctx.Get(fiber.HeaderAuthorization))
	if token != "" {
		ctx.Locals(LocalAuthToken, token)
		if uid := UserIDFromToken(token); uid != "" {
			ctx.Locals(LocalUserID, uid)
		}
	}
	return ctx.Next()
}

func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return ""
}

// UserIDFromToken reads user_id (or sub) from an unverified JWT.
func UserIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
