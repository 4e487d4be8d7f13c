package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	flashSessionName = "opensky_flash"

	flashKindSuccess = "success"
	flashKindError   = "error"
)

var flashKinds = []string{flashKindSuccess, flashKindError}

type flashMessage struct {
	Kind string
	Text string
}

// AddFlash queues a banner shown on the next admin page render.
func (authManager *AuthManager) AddFlash(context *gin.Context, kind string, text string) {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, flashSessionName)
	sessionInstance.AddFlash(text, kind)
	if err := sessionInstance.Save(context.Request, context.Writer); err != nil {
		authManager.logger.Warn(logEventSaveSession, zap.String("session", flashSessionName), zap.Error(err))
	}
}

// ConsumeFlashes returns and clears the queued banners, successes first.
func (authManager *AuthManager) ConsumeFlashes(context *gin.Context) []flashMessage {
	sessionInstance, sessionErr := authManager.sessionStore.Get(context.Request, flashSessionName)
	if sessionErr != nil {
		return nil
	}
	var messages []flashMessage
	for _, kind := range flashKinds {
		for _, value := range sessionInstance.Flashes(kind) {
			if text := extractString(value); text != "" {
				messages = append(messages, flashMessage{Kind: kind, Text: text})
			}
		}
	}
	if len(messages) == 0 {
		return nil
	}
	if err := sessionInstance.Save(context.Request, context.Writer); err != nil {
		authManager.logger.Warn(logEventSaveSession, zap.String("session", flashSessionName), zap.Error(err))
	}
	return messages
}
