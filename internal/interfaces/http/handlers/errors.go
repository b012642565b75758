// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/procurement-backend/internal/pkg/apperrors"
)

// respondError translates a service error into an HTTP response. Typed
// errors map to their status and keep their payload (availability, item
// issues); anything untyped is a plain 500.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.As(err)
	if appErr == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	if appErr.Code == apperrors.CodeInvariantViolation {
		// Accounting drift is an operator problem, not a client one
		logrus.WithField("path", c.Request.URL.Path).Errorf("❌ Invariant violation: %s", appErr.Message)
	}

	body := gin.H{
		"error": appErr.PublicMessage(),
		"code":  appErr.Code,
	}
	if appErr.Available != nil {
		body["quantidade_disponivel"] = *appErr.Available
	}
	if len(appErr.Items) > 0 {
		body["items"] = appErr.Items
	}

	c.JSON(appErr.HTTPStatus(), body)
}
