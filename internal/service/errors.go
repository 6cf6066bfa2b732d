package service

import "errors"

// Ошибки сервисного слоя.
var (
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrNotOwner — вызывающий не является владельцем записи.
	ErrNotOwner = errors.New("пользователь не является владельцем записи")
	// ErrConflict — имя пользователя или email уже заняты.
	ErrConflict = errors.New("пользователь уже существует")
	// ErrInvalidCredentials — неверный email или пароль.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	// ErrTokenIssuingDisabled — выпуск токенов отключён (режим JWKS).
	ErrTokenIssuingDisabled = errors.New("выпуск токенов отключён")
)

// ValidationError — ошибка валидации с сообщением для клиента.
// errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is сопоставляет ошибку с ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
