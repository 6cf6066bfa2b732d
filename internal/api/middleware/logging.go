// logging.go — логирование входящих HTTP-запросов через slog.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// callerSlot — ячейка, в которую JWT middleware записывает вызывающего.
// RequestLogger стоит в цепочке раньше аутентификации и видит только
// внешний контекст, поэтому получает идентификатор через неё.
type callerSlot struct {
	id model.UserID
}

type callerSlotKey struct{}

func recordCaller(ctx context.Context, caller model.UserID) {
	if slot, ok := ctx.Value(callerSlotKey{}).(*callerSlot); ok {
		slot.id = caller
	}
}

// responseWriter — обёртка для перехвата статус-кода и размера ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap — доступ к исходному ResponseWriter для http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger логирует метод, путь, статус, длительность, размер ответа
// и, для аутентифицированных запросов, идентификатор вызывающего (caller).
// Уровень: INFO для 1xx-3xx, WARN для 4xx, ERROR для 5xx.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)
			slot := &callerSlot{}

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), callerSlotKey{}, slot)))

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if slot.id != "" {
				attrs = append(attrs, slog.String("caller", string(slot.id)))
			}
			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}
