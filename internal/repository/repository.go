package repository

import "errors"

// Общие ошибки слоя хранения.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
