package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the request signature
const SignatureHeader = "X-Signature"

// ValidateSignature checks that the request was signed with the shared secret.
// The signature is base64(HMAC-SHA256(secret, METHOD + path + "?" + query + body)).
func ValidateSignature(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get(SignatureHeader)
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing request signature",
			})
		}

		if secret == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		expected := CalculateSignature(secret, c.Method(), c.Path(), string(c.Request().URI().QueryString()), c.Body())
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// CalculateSignature computes the expected signature for a request
func CalculateSignature(secret, method, path, query string, body []byte) string {
	data := method + path
	if query != "" {
		data += "?" + query
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	h.Write(body)

	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
