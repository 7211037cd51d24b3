// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/buildloom/loom-backend/internal/auth"
	"github.com/buildloom/loom-backend/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error; the last one decides the response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request using subsequent handlers
		c.Next()

		if len(c.Errors) == 0 {
			return // No errors, nothing to do
		}

		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		// --- Map error to HTTP status code and user message ---
		var statusCode int
		var userMessage string

		// Not-found covers not-owned as well: owner-scoped lookups never
		// disclose whether a resource exists.
		if errors.Is(err, storage.ErrUserNotFound) ||
			errors.Is(err, storage.ErrAppNotFound) ||
			errors.Is(err, storage.ErrJobNotFound) ||
			errors.Is(err, storage.ErrBlueprintNotFound) ||
			errors.Is(err, storage.ErrRuntimeConfigNotFound) {
			statusCode = http.StatusNotFound
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrEmailExists) ||
			errors.Is(err, storage.ErrSlugExists) ||
			errors.Is(err, storage.ErrIllegalAppTransition) ||
			errors.Is(err, storage.ErrIllegalJobTransition) {
			statusCode = http.StatusConflict
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrInvalidCredentials) {
			statusCode = http.StatusUnauthorized
			userMessage = err.Error()
		} else if errors.Is(err, auth.ErrTokenMalformed) ||
			errors.Is(err, auth.ErrTokenInvalid) ||
			errors.Is(err, auth.ErrTokenClaimsInvalid) ||
			errors.Is(err, auth.ErrUnexpectedSigningMethod) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token."
		} else if errors.Is(err, auth.ErrTokenExpired) {
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."
		} else if validationErrs, ok := err.(validator.ValidationErrors); ok {
			// Handle validation errors from c.ShouldBindJSON
			statusCode = http.StatusBadRequest
			userMessage = "Validation failed. Please check your input."
			for _, fe := range validationErrs {
				customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
			}
		} else {
			// Assume internal server error for unexpected types
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
		}

		// Abort execution and send JSON response
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
