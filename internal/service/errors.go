package service

import "errors"

// Классы ошибок бизнес-логики. Конкретная причина оборачивается рядом с классом,
// поэтому errors.Is срабатывает и на класс, и на исходную ошибку хранилища.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("not found or insufficient stock")
	ErrForbidden          = errors.New("forbidden")
	ErrPersistence        = errors.New("persistence error")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
