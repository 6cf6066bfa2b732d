// Пакет model — доменные модели Catalog Module.
package model

import "time"

// UserID — непрозрачный идентификатор пользователя (userId/sub из JWT).
// Сравнение владельца — только по значению.
type UserID string

// String возвращает строковое представление идентификатора.
func (id UserID) String() string {
	return string(id)
}

// FileRecord — запись каталога файлов (таблица files).
type FileRecord struct {
	// ID — UUID записи
	ID string
	// Title — заголовок (непустой)
	Title string
	// Description — описание (непустое)
	Description string
	// FilePath — путь к сохранённому бинарному файлу
	FilePath string
	// PublicationDate — дата публикации
	PublicationDate time.Time
	// Owner — создатель записи, не меняется после создания
	Owner UserID
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// OwnedBy проверяет, принадлежит ли запись указанному пользователю.
func (f *FileRecord) OwnedBy(caller UserID) bool {
	return f.Owner == caller
}

// FilePatch — частичное обновление записи.
// nil — поле не передано и остаётся без изменений.
type FilePatch struct {
	Title           *string
	Description     *string
	PublicationDate *time.Time
	FilePath        *string
}

// IsEmpty сообщает, что патч не меняет ни одного поля.
func (p FilePatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.PublicationDate == nil && p.FilePath == nil
}

// ApplyTo применяет патч к записи. Пустые строки и нулевая дата игнорируются.
func (p FilePatch) ApplyTo(f *FileRecord) {
	if p.Title != nil && *p.Title != "" {
		f.Title = *p.Title
	}
	if p.Description != nil && *p.Description != "" {
		f.Description = *p.Description
	}
	if p.PublicationDate != nil && !p.PublicationDate.IsZero() {
		f.PublicationDate = *p.PublicationDate
	}
	if p.FilePath != nil && *p.FilePath != "" {
		f.FilePath = *p.FilePath
	}
}
