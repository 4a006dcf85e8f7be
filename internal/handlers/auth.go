package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/Bessima/bookbind-pay/internal/handlers/schemas"
	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"github.com/Bessima/bookbind-pay/internal/repository"
	"go.uber.org/zap"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Bessima/bookbind-pay/internal/models"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	AccessTokenCookie = "access_token"
)

type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
}

type AuthHandler struct {
	jwtConfig   *JWTConfig
	UserStorage repository.UserStorageRepositoryI
}

func NewAuthHandler(jwtConfig *JWTConfig, storage repository.UserStorageRepositoryI) *AuthHandler {
	return &AuthHandler{
		jwtConfig:   jwtConfig,
		UserStorage: storage,
	}
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req schemas.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.UserStorage.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Log.Error("error loading user", zap.Error(err))
		WriteDetail(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || !user.CheckPassword(req.Password) {
		WriteDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, err := h.generateToken(user)
	if err != nil {
		logger.Log.Error("error generating token", zap.Error(err))
		WriteDetail(w, http.StatusInternalServerError, "Error generating tokens")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		Expires:  time.Now().Add(h.jwtConfig.AccessTokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	WriteJSON(w, http.StatusOK, schemas.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.jwtConfig.AccessTokenTTL.Seconds()),
	})
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	// Очистка cookies
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})

	WriteJSON(w, http.StatusOK, schemas.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	WriteJSON(w, http.StatusOK, schemas.UserResponse{ID: user.ID, Username: user.Username, Email: user.Email})
}

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtConfig.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtConfig.SecretKey))
}

func (h *AuthHandler) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(h.jwtConfig.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}

// GetUserFromContext извлекает пользователя из контекста
func GetUserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}
