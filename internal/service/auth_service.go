package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"uti-assess/internal/cache"
	"uti-assess/internal/config"
	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/logger"
	"uti-assess/internal/util"
	"uti-assess/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"
	maxNameLength     = 100
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrGoogleSignInDisabled  = errors.New("google sign-in is not configured")
	ErrUnverifiedGoogleEmail = errors.New("google email is not verified")
)

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// AuthResult is returned by every successful sign-in path.
type AuthResult struct {
	Tokens TokenPair
	User   *domain.User
}

// AuthService defines the interface for authentication operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name, role string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	// SignOut revokes the token carrying claims until it would have expired.
	SignOut(ctx context.Context, claims *dto.AuthClaims) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error)
	GoogleEnabled() bool
	GetGoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*AuthResult, error)
}

type authServiceImpl struct {
	userRepo     domain.UserRepository
	cache        domain.Cache
	validator    *validation.Validator
	jwtCfg       config.JWTConfig
	oauth2Config *oauth2.Config
	googleOn     bool
	userInfoURL  string
	bcryptCost   int
}

// NewAuthService creates a new instance of AuthService. c may be nil, in which case
// sign-out cannot revoke tokens before they expire.
func NewAuthService(userRepo domain.UserRepository, c domain.Cache, appConfig *config.Config, validator *validation.Validator) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}
	if c == nil {
		logger.Get().Warn("AuthService initialized without cache. Sign-out will not revoke tokens.")
	}

	return &authServiceImpl{
		userRepo:  userRepo,
		cache:     c,
		validator: validator,
		jwtCfg:    appConfig.JWT,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.GoogleOAuth.ClientID,
			ClientSecret: appConfig.GoogleOAuth.ClientSecret,
			RedirectURL:  appConfig.GoogleOAuth.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		googleOn:    appConfig.GoogleOAuth.Enabled(),
		userInfoURL: googleUserInfoURL,
		bcryptCost:  bcrypt.DefaultCost,
	}, nil
}

func (s *authServiceImpl) SignUp(ctx context.Context, email, password, name, role string) (*AuthResult, error) {
	if verrs := s.validator.ValidateSignUp(email, password, name, role); len(verrs) > 0 {
		return nil, domain.NewError(domain.CodeValidation, verrs.Error(), verrs)
	}

	r := domain.Role(role)
	if r == "" {
		r = domain.RolePatient
	}

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError("failed to check existing account", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	user := domain.NewUser(util.NewULID(), email, strings.TrimSpace(name), r)
	user.PasswordHash = string(hash)
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if domain.HasCode(err, domain.CodeConflict) {
			return nil, err
		}
		return nil, domain.NewInternalError("failed to create account", err)
	}
	logger.Get().Info("User signed up", zap.String("userID", user.ID), zap.String("role", string(user.Role)))

	return s.issue(ctx, user)
}

func (s *authServiceImpl) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	if verrs := s.validator.ValidateSignIn(email, password); len(verrs) > 0 {
		return nil, domain.NewError(domain.CodeValidation, verrs.Error(), verrs)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError("failed to load account", err)
	}
	// Same message for unknown email and wrong password.
	if user == nil || user.PasswordHash == "" {
		return nil, domain.NewAuthError("Invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewAuthError("Invalid email or password", nil)
	}

	logger.Get().Info("User signed in", zap.String("userID", user.ID))
	return s.issue(ctx, user)
}

func (s *authServiceImpl) SignOut(ctx context.Context, claims *dto.AuthClaims) error {
	if claims == nil {
		return domain.NewAuthError("no active session", nil)
	}
	s.revoke(ctx, claims)
	logger.Get().Info("User signed out", zap.String("userID", claims.UserID))
	return nil
}

// revoke records the token id until expiry. Cache failures are logged; the
// token then stays valid until it expires.
func (s *authServiceImpl) revoke(ctx context.Context, claims *dto.AuthClaims) {
	if s.cache == nil || claims.ID == "" {
		return
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, cache.RevokedTokenKey(claims.ID), claims.UserID, ttl); err != nil {
		logger.Get().Warn("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func (s *authServiceImpl) isRevoked(ctx context.Context, jti string) bool {
	if s.cache == nil || jti == "" {
		return false
	}
	_, err := s.cache.Get(ctx, cache.RevokedTokenKey(jti))
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Revocation lookup failed, accepting token", zap.String("jti", jti), zap.Error(err))
	}
	return false
}

func (s *authServiceImpl) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("user %s not found", userID))
	}
	return user, nil
}

func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if len(name) > maxNameLength {
		verrs := domain.ValidationErrors{domain.NewOutOfRangeError("name", len(name), 0, maxNameLength)}
		return nil, domain.NewError(domain.CodeValidation, verrs.Error(), verrs)
	}

	user, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return nil, err
		}
		return nil, domain.NewInternalError("failed to update profile", err)
	}
	return user, nil
}

func (s *authServiceImpl) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	pair, err := s.newTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: *pair, User: user}, nil
}

func (s *authServiceImpl) newTokenPair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.CreateJWT(ctx, user, s.jwtCfg.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return nil, domain.NewInternalError("failed to create access token", err)
	}
	refreshToken, err := s.CreateJWT(ctx, user, s.jwtCfg.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return nil, domain.NewInternalError("failed to create refresh token", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, ExpiresIn: s.jwtCfg.AccessTokenTTL}, nil
}

// CreateJWT signs a token for user. Each token gets a unique id so it can be revoked.
func (s *authServiceImpl) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:    user.ID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        util.NewULID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.SecretKey))
}

func tokenSnippet(token string) string {
	return token[:min(len(token), 20)] + "..."
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("JWT token expired", zap.String("token_snippet", tokenSnippet(tokenString)))
		} else {
			logger.Get().Warn("JWT validation failed", zap.Error(err), zap.String("token_snippet", tokenSnippet(tokenString)))
		}
		return nil, domain.NewAuthError("invalid or expired token", fmt.Errorf("%w: %v", ErrInvalidJWTToken, err))
	}

	claims, ok := token.Claims.(*dto.AuthClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, domain.NewAuthError("invalid or expired token", ErrInvalidJWTToken)
	}
	if s.isRevoked(ctx, claims.ID) {
		return nil, domain.NewAuthError("token has been revoked", ErrTokenRevoked)
	}
	return claims, nil
}

// RefreshToken exchanges a refresh token for a new pair and revokes the one presented.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, domain.NewAuthError("not a refresh token", ErrInvalidJWTToken)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load user for refresh token", err)
	}
	if user == nil {
		logger.Get().Error("User not found for refresh token", zap.String("userID", claims.UserID))
		return nil, domain.NewNotFoundError(fmt.Sprintf("User %s not found for refresh token", claims.UserID))
	}

	pair, err := s.newTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)

	logger.Get().Info("JWT token refreshed", zap.String("userID", user.ID))
	return pair, nil
}

func (s *authServiceImpl) GoogleEnabled() bool {
	return s.googleOn
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// HandleGoogleCallback signs in a Google user. Unknown Google accounts are linked to an
// existing account with the same email, or get a new patient account.
func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code, receivedState, expectedState string) (*AuthResult, error) {
	if !s.googleOn {
		return nil, domain.NewAuthError("Google sign-in is not available", ErrGoogleSignInDisabled)
	}
	if receivedState == "" || receivedState != expectedState {
		return nil, domain.NewAuthError("invalid sign-in state", ErrInvalidAuthState)
	}

	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, domain.NewAuthError("Google sign-in failed", fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err))
	}

	userInfo, err := s.fetchGoogleUser(ctx, googleToken)
	if err != nil {
		return nil, domain.NewAuthError("Google sign-in failed", err)
	}

	user, err := s.findOrCreateGoogleUser(ctx, userInfo)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *authServiceImpl) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*dto.GoogleUserInfo, error) {
	client := s.oauth2Config.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFailedToGetUserInfo, resp.StatusCode)
	}

	var info dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: incomplete profile", ErrFailedToGetUserInfo)
	}
	return &info, nil
}

func (s *authServiceImpl) findOrCreateGoogleUser(ctx context.Context, info *dto.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.GetUserByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load account", err)
	}
	if user != nil {
		return user, nil
	}

	// Linking or creating by email trusts the address, so Google must have verified it.
	if !info.VerifiedEmail {
		logger.Get().Warn("Rejected Google sign-in with unverified email", zap.String("googleID", info.ID))
		return nil, domain.NewAuthError("Google account email is not verified", ErrUnverifiedGoogleEmail)
	}

	user, err = s.userRepo.GetUserByEmail(ctx, info.Email)
	if err != nil {
		return nil, domain.NewInternalError("failed to load account", err)
	}
	if user != nil {
		user.GoogleID = info.ID
		if user.Name == "" {
			user.Name = info.Name
		}
		if err := s.userRepo.UpdateUser(ctx, user); err != nil {
			return nil, domain.NewInternalError("failed to link Google account", err)
		}
		logger.Get().Info("Linked Google account", zap.String("userID", user.ID))
		return user, nil
	}

	user = domain.NewUser(util.NewULID(), info.Email, info.Name, domain.RolePatient)
	user.GoogleID = info.ID
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, domain.NewInternalError("failed to create account", err)
	}
	logger.Get().Info("New user created via Google OAuth", zap.String("userID", user.ID))
	return user, nil
}
