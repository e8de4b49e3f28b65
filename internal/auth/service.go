package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/apoiaedu/api/internal/apperr"
	"github.com/apoiaedu/api/internal/usuario"
)

// ErrInvalidCredentials cobre e-mail desconhecido e senha incorreta com a
// mesma resposta, sem revelar qual dos dois falhou.
var ErrInvalidCredentials = apperr.Unauthorized("AUTH_INVALID_CREDENTIALS", "credenciais inválidas")

// UserDirectory abstrai a consulta de usuários necessária à autenticação.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (*usuario.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error)
}

// TokenPair agrupa os tokens emitidos em login e refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service emite e renova credenciais. O estado do refresh token vive no
// Redis (apenas o hash), com TTL igual à validade do token.
type Service struct {
	users      UserDirectory
	redis      *redis.Client
	jwt        *JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService cria o serviço de autenticação.
func NewService(users UserDirectory, redisClient *redis.Client, jwtManager *JWTManager, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		users:      users,
		redis:      redisClient,
		jwt:        jwtManager,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// JWT expõe o gerenciador para o middleware de autenticação.
func (s *Service) JWT() *JWTManager {
	return s.jwt
}

// Profile busca o perfil do usuário autenticado.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error) {
	return s.users.FindByID(ctx, id)
}

// Login valida credenciais e emite par de tokens.
func (s *Service) Login(ctx context.Context, email, senha string) (*usuario.Usuario, *TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) && appErr.StatusCode == 404 {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if u.Status == usuario.StatusCancelado {
		return nil, nil, ErrInvalidCredentials
	}

	ok, err := Verify(senha, u.SenhaHash)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

// Refresh rotaciona o refresh token: o antigo é invalidado e um novo par é
// emitido. Token desconhecido ou expirado resulta em 401.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	key := RefreshRedisKey(HashRefreshToken(rawRefresh))

	stored, err := s.redis.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return nil, apperr.Unauthorized("AUTH_INVALID_REFRESH", ErrInvalidRefresh.Error())
	}
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(stored)
	if err != nil {
		return nil, apperr.Unauthorized("AUTH_INVALID_REFRESH", ErrInvalidRefresh.Error())
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Unauthorized("AUTH_INVALID_REFRESH", ErrInvalidRefresh.Error())
	}
	if u.Status == usuario.StatusCancelado {
		return nil, apperr.Unauthorized("AUTH_INVALID_REFRESH", ErrInvalidRefresh.Error())
	}

	return s.issueTokens(ctx, u)
}

// Logout invalida o refresh token informado. Token já inválido não é erro.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	key := RefreshRedisKey(HashRefreshToken(rawRefresh))
	return s.redis.Del(ctx, key).Err()
}

func (s *Service) issueTokens(ctx context.Context, u *usuario.Usuario) (*TokenPair, error) {
	access, _, err := s.jwt.GenerateAccessToken(u.ID.String(), string(u.Cargo))
	if err != nil {
		return nil, err
	}

	rawRefresh, hashed, err := GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := RefreshRedisKey(hashed)
	if err := s.redis.Set(ctx, key, u.ID.String(), s.refreshTTL).Err(); err != nil {
		return nil, fmt.Errorf("auth: persistir refresh: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
