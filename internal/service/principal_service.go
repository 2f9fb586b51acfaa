package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"frotadocs/internal/domain"
	"frotadocs/internal/repository"
	"frotadocs/internal/validate"
)

const bcryptCost = 12

// Роль по умолчанию для новых принципалов без явных ролей.
const defaultRole = "driver-truck"

// PrincipalStore — хранилище учетных записей.
type PrincipalStore interface {
	Create(ctx context.Context, p *domain.Principal) error
	GetByCredential(ctx context.Context, kind domain.CredentialKind, credential string) (*domain.Principal, error)
	Delete(ctx context.Context, kind domain.CredentialKind, credential string) error
}

type RegisterInput struct {
	Name       string
	Kind       domain.CredentialKind
	Credential string
	Password   string
	Roles      []string
	Companies  []string
}

// PrincipalService ведет жизненный цикл учетных записей.
type PrincipalService struct {
	principals PrincipalStore
	sessions   *SessionService
	roles      []string
	companies  []string
}

func NewPrincipalService(principals PrincipalStore, sessions *SessionService, roles, companies []string) *PrincipalService {
	return &PrincipalService{
		principals: principals,
		sessions:   sessions,
		roles:      roles,
		companies:  companies,
	}
}

// Register создает принципала и сразу открывает ему сессию.
func (s *PrincipalService) Register(ctx context.Context, in RegisterInput) (*domain.Principal, string, error) {
	switch in.Kind {
	case domain.CredentialEmail:
		if !validate.Email(in.Credential) {
			return nil, "", fmt.Errorf("%w: malformed email", ErrInvalidCredential)
		}
	case domain.CredentialCPF:
		if !validate.CPF(in.Credential) {
			return nil, "", fmt.Errorf("%w: malformed cpf", ErrInvalidCredential)
		}
	default:
		return nil, "", fmt.Errorf("%w: unknown credential kind %q", ErrInvalidCredential, in.Kind)
	}

	if !validate.Password(in.Password) {
		return nil, "", ErrWeakPassword
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{defaultRole}
	}
	if !validate.Tags(roles, s.roles) {
		return nil, "", ErrInvalidRole
	}
	if !validate.Tags(in.Companies, s.companies) {
		return nil, "", ErrInvalidCompany
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	p := &domain.Principal{
		ID:             uuid.New(),
		Name:           in.Name,
		CredentialKind: in.Kind,
		Credential:     in.Credential,
		PasswordHash:   string(hash),
		Roles:          roles,
		Companies:      in.Companies,
	}

	if err := s.principals.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrDuplicateCredential
		}
		return nil, "", fmt.Errorf("failed to create principal: %w", err)
	}

	token, err := s.sessions.establish(ctx, p)
	if err != nil {
		return nil, "", err
	}

	return p, token, nil
}

// Find возвращает принципала по учетной паре.
func (s *PrincipalService) Find(ctx context.Context, kind domain.CredentialKind, credential string) (*domain.Principal, error) {
	p, err := s.principals.GetByCredential(ctx, kind, credential)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}
	return p, nil
}

// DeleteAccount удаляет учетную запись. Чужую запись может удалить только
// носитель роли adm; свою — любой.
func (s *PrincipalService) DeleteAccount(ctx context.Context, kind domain.CredentialKind, credential string, caller *domain.Principal) error {
	self := caller.CredentialKind == kind && caller.Credential == credential
	if !self && !caller.HasRole(domain.RoleAdmin) {
		return ErrAccessDenied
	}

	err := s.principals.Delete(ctx, kind, credential)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete principal: %w", err)
	}

	return nil
}
