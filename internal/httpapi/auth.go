package httpapi

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	contextKeyCurrentUser = "httpapi_current_user"

	sessionName          = "opensky_admin"
	sessionKeyUserEmail  = "user_email"
	sessionKeyUserName   = "user_name"
	sessionKeySignedInAt = "signed_in_at"

	defaultSessionMaxAge = 24 * time.Hour
	defaultTokenTTL      = time.Hour
	tokenIssuer          = "opensky"

	// DefaultAdminEmail and DefaultAdminPassword form the built-in administrator credential.
	DefaultAdminEmail    = "admin@opensydrones.com"
	DefaultAdminPassword = "admin123"
	DefaultAdminName     = "Administrador"
	defaultAdminID       = "1"
)

var (
	// ErrMissingSessionSecret indicates the session signing secret was not configured.
	ErrMissingSessionSecret = errors.New("httpapi: missing session secret")
	// ErrInvalidToken indicates a bearer token failed verification.
	ErrInvalidToken = errors.New("httpapi: invalid token")
)

// CurrentUser is the authenticated administrator.
type CurrentUser struct {
	ID    string
	Email string
	Name  string
}

// Credentials is the single accepted administrator login.
type Credentials struct {
	Email    string
	Password string
	Name     string
}

// AuthConfig configures sessions and bearer tokens.
type AuthConfig struct {
	Credentials   Credentials
	SessionSecret string
	SessionMaxAge time.Duration
	TokenTTL      time.Duration
	SecureCookies bool
}

// AuthManager authenticates the administrator through a cookie session or a signed bearer token.
type AuthManager struct {
	logger       *zap.Logger
	sessionStore *sessions.CookieStore
	credentials  Credentials
	signingKey   []byte
	tokenTTL     time.Duration
	clock        func() time.Time
}

type adminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// NewAuthManager builds an AuthManager. Empty credential fields fall back to the built-in administrator.
func NewAuthManager(logger *zap.Logger, configuration AuthConfig) (*AuthManager, error) {
	secret := strings.TrimSpace(configuration.SessionSecret)
	if secret == "" {
		return nil, ErrMissingSessionSecret
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	credentials := configuration.Credentials
	if strings.TrimSpace(credentials.Email) == "" {
		credentials.Email = DefaultAdminEmail
	}
	if credentials.Password == "" {
		credentials.Password = DefaultAdminPassword
	}
	if strings.TrimSpace(credentials.Name) == "" {
		credentials.Name = DefaultAdminName
	}
	credentials.Email = strings.ToLower(strings.TrimSpace(credentials.Email))

	sessionMaxAge := configuration.SessionMaxAge
	if sessionMaxAge <= 0 {
		sessionMaxAge = defaultSessionMaxAge
	}
	tokenTTL := configuration.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   configuration.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &AuthManager{
		logger:       logger,
		sessionStore: sessionStore,
		credentials:  credentials,
		signingKey:   []byte(secret),
		tokenTTL:     tokenTTL,
		clock:        time.Now,
	}, nil
}

// Authenticate checks the submitted credentials against the configured administrator.
func (authManager *AuthManager) Authenticate(email string, password string) (*CurrentUser, bool) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))
	emailMatches := subtle.ConstantTimeCompare([]byte(normalizedEmail), []byte(authManager.credentials.Email)) == 1
	passwordMatches := subtle.ConstantTimeCompare([]byte(password), []byte(authManager.credentials.Password)) == 1
	if !emailMatches || !passwordMatches {
		return nil, false
	}
	return authManager.administrator(), true
}

func (authManager *AuthManager) administrator() *CurrentUser {
	return &CurrentUser{ID: defaultAdminID, Email: authManager.credentials.Email, Name: authManager.credentials.Name}
}

// StartSession stores the user in the session cookie.
func (authManager *AuthManager) StartSession(context *gin.Context, user *CurrentUser) error {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, sessionName)
	sessionInstance.Values[sessionKeyUserEmail] = user.Email
	sessionInstance.Values[sessionKeyUserName] = user.Name
	sessionInstance.Values[sessionKeySignedInAt] = authManager.clock().UTC().Unix()
	if err := sessionInstance.Save(context.Request, context.Writer); err != nil {
		authManager.logger.Warn(logEventSaveSession, zap.Error(err))
		return err
	}
	context.Set(contextKeyCurrentUser, user)
	return nil
}

// EndSession expires the session cookie.
func (authManager *AuthManager) EndSession(context *gin.Context) error {
	sessionInstance, _ := authManager.sessionStore.Get(context.Request, sessionName)
	sessionInstance.Values = map[interface{}]interface{}{}
	sessionInstance.Options.MaxAge = -1
	if err := sessionInstance.Save(context.Request, context.Writer); err != nil {
		authManager.logger.Warn(logEventSaveSession, zap.Error(err))
		return err
	}
	return nil
}

// IssueToken signs a bearer token for user.
func (authManager *AuthManager) IssueToken(user *CurrentUser) (string, time.Time, error) {
	issuedAt := authManager.clock().UTC()
	expiresAt := issuedAt.Add(authManager.tokenTTL)
	claims := adminClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(authManager.signingKey)
	if signErr != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", signErr)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies a bearer token and returns the user it was issued to.
func (authManager *AuthManager) ParseToken(rawToken string) (*CurrentUser, error) {
	claims := &adminClaims{}
	_, parseErr := jwt.ParseWithClaims(strings.TrimSpace(rawToken), claims, func(token *jwt.Token) (interface{}, error) {
		return authManager.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(authManager.clock),
	)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, parseErr)
	}
	if !strings.EqualFold(claims.Email, authManager.credentials.Email) {
		return nil, ErrInvalidToken
	}
	return &CurrentUser{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// RequireAdminWeb redirects requests without a session to the login page.
func (authManager *AuthManager) RequireAdminWeb() gin.HandlerFunc {
	return func(context *gin.Context) {
		if _, ok := authManager.sessionUser(context); !ok {
			context.Redirect(http.StatusFound, LoginPath)
			context.Abort()
			return
		}
		context.Next()
	}
}

// RequireAdminJSON accepts a session or a bearer token and answers 401 otherwise.
func (authManager *AuthManager) RequireAdminJSON() gin.HandlerFunc {
	return func(context *gin.Context) {
		if _, ok := authManager.Authorize(context); ok {
			context.Next()
			return
		}
		context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeySuccess: false, jsonKeyError: errorValueUnauthorized})
	}
}

// Authorize resolves the administrator from the session cookie or a bearer token.
func (authManager *AuthManager) Authorize(context *gin.Context) (*CurrentUser, bool) {
	if user, ok := authManager.sessionUser(context); ok {
		return user, true
	}
	authorizationHeader := strings.TrimSpace(context.GetHeader(headerAuthorization))
	if !strings.HasPrefix(authorizationHeader, bearerPrefix) {
		return nil, false
	}
	user, tokenErr := authManager.ParseToken(strings.TrimPrefix(authorizationHeader, bearerPrefix))
	if tokenErr != nil {
		return nil, false
	}
	context.Set(contextKeyCurrentUser, user)
	return user, true
}

// CurrentUser resolves the session user, if any, without aborting the request.
func (authManager *AuthManager) CurrentUser(context *gin.Context) (*CurrentUser, bool) {
	return authManager.sessionUser(context)
}

// CurrentUserFromContext returns the user stored by the auth middleware.
func CurrentUserFromContext(context *gin.Context) (*CurrentUser, bool) {
	value, exists := context.Get(contextKeyCurrentUser)
	if !exists {
		return nil, false
	}
	currentUser, ok := value.(*CurrentUser)
	return currentUser, ok
}

func (authManager *AuthManager) sessionUser(context *gin.Context) (*CurrentUser, bool) {
	if currentUser, exists := CurrentUserFromContext(context); exists {
		return currentUser, true
	}

	sessionInstance, sessionErr := authManager.sessionStore.Get(context.Request, sessionName)
	if sessionErr != nil {
		authManager.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
		return nil, false
	}
	email := extractString(sessionInstance.Values[sessionKeyUserEmail])
	if email == "" || !strings.EqualFold(email, authManager.credentials.Email) {
		return nil, false
	}

	currentUser := &CurrentUser{
		ID:    defaultAdminID,
		Email: email,
		Name:  extractString(sessionInstance.Values[sessionKeyUserName]),
	}
	context.Set(contextKeyCurrentUser, currentUser)
	return currentUser, true
}

func extractString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
