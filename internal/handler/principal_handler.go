package handler

import (
	"encoding/json"
	"net/http"

	"frotadocs/internal/auth"
	"frotadocs/internal/domain"
	"frotadocs/internal/service"
)

type PrincipalHandler struct {
	principals *service.PrincipalService
	sessions   *service.SessionService
}

func NewPrincipalHandler(principals *service.PrincipalService, sessions *service.SessionService) *PrincipalHandler {
	return &PrincipalHandler{
		principals: principals,
		sessions:   sessions,
	}
}

// credentialPayload — учетная пара в теле запроса. Развертывания используют
// либо email, либо CPF, но никогда оба сразу.
type credentialPayload struct {
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

func (c credentialPayload) kindValue() (domain.CredentialKind, string, bool) {
	switch {
	case c.Email != "" && c.CPF == "":
		return domain.CredentialEmail, c.Email, true
	case c.CPF != "" && c.Email == "":
		return domain.CredentialCPF, c.CPF, true
	default:
		return "", "", false
	}
}

type registerRequest struct {
	credentialPayload
	Name      string          `json:"name"`
	Password  string          `json:"password"`
	Roles     []string        `json:"roles"`
	Companies json.RawMessage `json:"companies"`
}

type tokenResponse struct {
	Token string                   `json:"token"`
	User  *domain.PrincipalProfile `json:"user,omitempty"`
}

// Register создает учетную запись и сразу возвращает сессионный токен.
func (h *PrincipalHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, credential, ok := req.kindValue()
	if !ok {
		writeError(w, http.StatusBadRequest, "exactly one of email or cpf is required")
		return
	}

	principal, token, err := h.principals.Register(r.Context(), service.RegisterInput{
		Name:       req.Name,
		Kind:       kind,
		Credential: credential,
		Password:   req.Password,
		Roles:      req.Roles,
		Companies:  domain.NormalizeCompanyTags(string(req.Companies)),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	profile := principal.Profile()
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: &profile})
}

type loginRequest struct {
	credentialPayload
	Password string `json:"password"`
}

// Login проверяет учетную пару и возвращает токен. Повторный вход при живой
// сессии возвращает тот же токен.
func (h *PrincipalHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, credential, ok := req.kindValue()
	if !ok || req.Password == "" {
		writeError(w, http.StatusBadRequest, "credential and password are required")
		return
	}

	token, err := h.sessions.Login(r.Context(), kind, credential, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout сбрасывает предъявленный токен.
func (h *PrincipalHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "token not provided")
		return
	}

	if err := h.sessions.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "logout successful"})
}

// DeleteAccount удаляет учетную запись. Чужую — только с ролью adm.
func (h *PrincipalHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := h.authenticate(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var req credentialPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, credential, ok := req.kindValue()
	if !ok {
		writeError(w, http.StatusBadRequest, "exactly one of email or cpf is required")
		return
	}

	if err := h.principals.DeleteAccount(r.Context(), kind, credential, caller); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
}

// Find возвращает публичный профиль принципала.
func (h *PrincipalHandler) Find(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeServiceError(w, err)
		return
	}

	var req credentialPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	kind, credential, ok := req.kindValue()
	if !ok {
		writeError(w, http.StatusBadRequest, "exactly one of email or cpf is required")
		return
	}

	principal, err := h.principals.Find(r.Context(), kind, credential)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, principal.Profile())
}

func (h *PrincipalHandler) authenticate(r *http.Request) (*domain.Principal, error) {
	token, err := auth.BearerToken(r)
	if err != nil {
		return nil, service.ErrInvalidToken
	}
	return h.sessions.Authenticate(r.Context(), token)
}
