package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const apiPathPrefix = "/api/"

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// RecoverWithRetryPage turns a panic into a logged 500. Browsers get a page with a retry
// link back to the same URL; API clients get the JSON error envelope.
func RecoverWithRetryPage(logger *zap.Logger, templates *TemplateRenderer) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(context *gin.Context, recovered any) {
		logger.Error(logEventRecoveredPanic,
			zap.String("path", context.Request.URL.Path),
			zap.String("panic", fmt.Sprint(recovered)),
			zap.Stack("stack"))

		if strings.HasPrefix(context.Request.URL.Path, apiPathPrefix) {
			context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeySuccess: false, jsonKeyMessage: messageInternalError})
			return
		}

		var buffer bytes.Buffer
		renderErr := templates.Execute(&buffer, templateNameError, errorPageData{RetryURL: context.Request.URL.RequestURI()})
		if renderErr != nil {
			context.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		context.Data(http.StatusInternalServerError, contentTypeHTML, buffer.Bytes())
		context.Abort()
	})
}
