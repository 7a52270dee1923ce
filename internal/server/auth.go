package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/storage"
)

type ctxKey int

const userIDKey ctxKey = iota

type sessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.JWTSecret))
}

func (s *Server) parseToken(raw string) (int64, error) {
	token, err := jwt.ParseWithClaims(raw, &sessionClaims{},
		func(t *jwt.Token) (any, error) {
			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.UserID == 0 {
		return 0, errors.New("server: malformed claims")
	}
	return claims.UserID, nil
}

// authenticate requires a valid bearer token and stashes the user id in
// the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := s.parseToken(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func userIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "username and password required (password at least 8 characters)")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.repo.CreateUser(r.Context(), req.Username, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			respondError(w, http.StatusConflict, "username already taken")
			return
		}
		s.log.Error("create user", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		s.log.Error("issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.log.Info("user signed up", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, api.TokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.CredentialsRequest
	if err := s.decodeValid(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Same response as a wrong password; no username probing.
			respondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.log.Error("lookup user", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		s.log.Error("issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, api.TokenResponse{Token: token})
}
