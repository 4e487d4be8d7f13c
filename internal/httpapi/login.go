package httpapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	formKeyEmail    = "email"
	formKeyPassword = "password"

	jsonKeyToken     = "token"
	jsonKeyTokenType = "token_type"
	jsonKeyExpiresAt = "expires_at"
	tokenTypeBearer  = "Bearer"

	logEventLoginFailed = "admin_login_failed"
	logEventLogin       = "admin_login"
)

type loginPageData struct {
	Action   string
	Email    string
	Error    string
	DemoMode bool
}

type tokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandlers serve the credentials login, logout and the bearer token exchange.
type LoginHandlers struct {
	logger      *zap.Logger
	authManager *AuthManager
	renderer    *TemplateRenderer
	demoMode    bool
}

// NewLoginHandlers builds the login handlers.
func NewLoginHandlers(logger *zap.Logger, authManager *AuthManager, renderer *TemplateRenderer, demoMode bool) *LoginHandlers {
	return &LoginHandlers{logger: logger, authManager: authManager, renderer: renderer, demoMode: demoMode}
}

// LoginPage renders the login form, or redirects to the dashboard when a session exists.
func (handlers *LoginHandlers) LoginPage(context *gin.Context) {
	if _, signedIn := handlers.authManager.CurrentUser(context); signedIn {
		context.Redirect(http.StatusFound, AdminHomePath)
		return
	}
	handlers.renderLogin(context, http.StatusOK, loginPageData{})
}

// Login checks the submitted credentials and starts a session.
func (handlers *LoginHandlers) Login(context *gin.Context) {
	email := context.PostForm(formKeyEmail)
	user, authenticated := handlers.authManager.Authenticate(email, context.PostForm(formKeyPassword))
	if !authenticated {
		handlers.logger.Info(logEventLoginFailed, zap.String("ip", context.ClientIP()))
		handlers.renderLogin(context, http.StatusUnauthorized, loginPageData{Email: email, Error: messageInvalidCredentials})
		return
	}
	if err := handlers.authManager.StartSession(context, user); err != nil {
		handlers.renderLogin(context, http.StatusInternalServerError, loginPageData{Email: email, Error: messageInternalError})
		return
	}
	handlers.logger.Info(logEventLogin, zap.String("email", user.Email))
	context.Redirect(http.StatusSeeOther, AdminHomePath)
}

// Logout ends the session and returns to the login page.
func (handlers *LoginHandlers) Logout(context *gin.Context) {
	_ = handlers.authManager.EndSession(context)
	context.Redirect(http.StatusSeeOther, LoginPath)
}

// IssueToken exchanges the administrator credentials for a bearer token.
func (handlers *LoginHandlers) IssueToken(context *gin.Context) {
	var request tokenRequest
	if bindErr := context.ShouldBindJSON(&request); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueInvalidJSON})
		return
	}
	user, authenticated := handlers.authManager.Authenticate(request.Email, request.Password)
	if !authenticated {
		handlers.logger.Info(logEventLoginFailed, zap.String("ip", context.ClientIP()))
		context.JSON(http.StatusUnauthorized, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueInvalidCredentials, jsonKeyMessage: messageInvalidCredentials})
		return
	}
	token, expiresAt, tokenErr := handlers.authManager.IssueToken(user)
	if tokenErr != nil {
		handlers.logger.Error(errorValueTokenFailed, zap.Error(tokenErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueTokenFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{
		jsonKeyToken:     token,
		jsonKeyTokenType: tokenTypeBearer,
		jsonKeyExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

func (handlers *LoginHandlers) renderLogin(context *gin.Context, status int, data loginPageData) {
	data.Action = LoginPath
	data.DemoMode = handlers.demoMode
	var page bytes.Buffer
	if err := handlers.renderer.Execute(&page, templateNameLogin, data); err != nil {
		handlers.logger.Error(logEventRenderTemplate, zap.String("template", templateNameLogin), zap.Error(err))
		context.String(http.StatusInternalServerError, messageInternalError)
		return
	}
	context.Data(status, contentTypeHTML, page.Bytes())
}
