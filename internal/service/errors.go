package service

import "errors"

// Ошибки сервисного слоя. Хендлеры отображают их в статусы ответа;
// все остальное трактуется как внутренняя ошибка.
var (
	ErrNotFound            = errors.New("not found")
	ErrMissingID           = errors.New("document id is required")
	ErrDuplicateID         = errors.New("document id already exists")
	ErrInvalidRole         = errors.New("invalid role tag")
	ErrInvalidCompany      = errors.New("invalid company tag")
	ErrMissingContent      = errors.New("file content is required")
	ErrUnsupportedType     = errors.New("only application/pdf is accepted")
	ErrFileTooLarge        = errors.New("file size exceeds maximum allowed size")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrDuplicateCredential = errors.New("credential already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrAccessDenied        = errors.New("access denied")
)
