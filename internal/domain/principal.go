package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// CredentialKind — вид натурального идентификатора принципала.
// В одном развертывании используется email, в другом — CPF, но никогда оба.
type CredentialKind string

const (
	CredentialEmail CredentialKind = "email"
	CredentialCPF   CredentialKind = "cpf"
)

const RoleAdmin = "adm"

type Principal struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	CredentialKind CredentialKind `json:"credential_kind" db:"credential_kind"`
	Credential     string         `json:"credential" db:"credential"`
	PasswordHash   string         `json:"-" db:"password_hash"`
	Roles          pq.StringArray `json:"roles" db:"roles"`
	Companies      pq.StringArray `json:"companies" db:"companies"`
	SessionToken   *string        `json:"-" db:"session_token"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// PrincipalProfile — публичные поля принципала для ответа поиска.
type PrincipalProfile struct {
	Name       string         `json:"name"`
	Kind       CredentialKind `json:"credential_kind"`
	Credential string         `json:"credential"`
	Roles      []string       `json:"roles"`
	Companies  []string       `json:"companies"`
}

func (p *Principal) Profile() PrincipalProfile {
	return PrincipalProfile{
		Name:       p.Name,
		Kind:       p.CredentialKind,
		Credential: p.Credential,
		Roles:      append([]string(nil), p.Roles...),
		Companies:  append([]string(nil), p.Companies...),
	}
}
