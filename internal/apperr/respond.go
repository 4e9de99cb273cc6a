package apperr

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Respond aborts the request with the JSON body for err. Causes of internal
// and dependency failures are logged and never sent to the client.
func Respond(c *gin.Context, err error) {
	e := From(err)
	requestID := c.GetString("requestID")

	if e.Kind == KindInternal || e.Kind == KindDependency {
		zap.L().Error(e.Message, zap.Error(err), zap.String("code", e.Code), zap.String("requestID", requestID))
	} else {
		zap.L().Debug(e.Message, zap.Error(err), zap.String("code", e.Code), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(e.Kind.Status(), gin.H{
		"error":     e.Message,
		"code":      e.Code,
		"requestID": requestID,
	})
}
