package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"frotadocs/internal/auth"
	"frotadocs/internal/domain"
	"frotadocs/internal/repository"
)

// SessionPrincipalStore — часть хранилища принципалов, нужная сессиям.
type SessionPrincipalStore interface {
	GetByCredential(ctx context.Context, kind domain.CredentialKind, credential string) (*domain.Principal, error)
	GetBySessionToken(ctx context.Context, token string) (*domain.Principal, error)
	SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error
}

// SessionService ведет жизненный цикл сессионного токена: у принципала в
// любой момент не больше одного действующего токена. Проверка токена одна
// для всех маршрутов: подпись и срок действия, затем совпадение с
// сохраненным значением. Раздвоения путей аутентификации нет.
type SessionService struct {
	principals SessionPrincipalStore
	tokens     *auth.TokenManager
}

func NewSessionService(principals SessionPrincipalStore, tokens *auth.TokenManager) *SessionService {
	return &SessionService{
		principals: principals,
		tokens:     tokens,
	}
}

// Login проверяет пару учетных данных и возвращает сессионный токен.
// Сообщение об ошибке никогда не говорит, какая именно половина пары неверна.
func (s *SessionService) Login(ctx context.Context, kind domain.CredentialKind, credential, password string) (string, error) {
	p, err := s.principals.GetByCredential(ctx, kind, credential)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up principal: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.establish(ctx, p)
}

// establish возвращает действующий токен принципала или выпускает новый.
// Повторный вход при живой сессии не порождает новый токен.
func (s *SessionService) establish(ctx context.Context, p *domain.Principal) (string, error) {
	if p.SessionToken != nil {
		if id, err := s.tokens.Verify(*p.SessionToken); err == nil && id == p.ID.String() {
			return *p.SessionToken, nil
		}
		// Сохраненный токен истек или не читается — выпускаем свежий
	}

	token, err := s.tokens.Mint(p.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to mint token: %w", err)
	}

	if err := s.principals.SetSessionToken(ctx, p.ID, &token); err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return token, nil
}

// Logout сбрасывает сохраненный токен; после этого предъявление старого
// токена не проходит аутентификацию.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	p, err := s.principals.GetBySessionToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}

	if err := s.principals.SetSessionToken(ctx, p.ID, nil); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	return nil
}

// Authenticate — единственный путь проверки предъявленного токена.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	p, err := s.principals.GetBySessionToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	if p.ID.String() != id {
		return nil, ErrInvalidToken
	}

	return p, nil
}
