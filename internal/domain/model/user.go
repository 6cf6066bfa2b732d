package model

import "time"

// User — учётная запись пользователя каталога (таблица users).
type User struct {
	// ID — UUID пользователя, попадает в claim userId выпускаемых токенов
	ID UserID
	// Username — уникальное имя пользователя
	Username string
	// Email — уникальный адрес электронной почты
	Email string
	// PasswordHash — bcrypt-хэш пароля, наружу не отдаётся
	PasswordHash string
	// CreatedAt — время регистрации
	CreatedAt time.Time
}
