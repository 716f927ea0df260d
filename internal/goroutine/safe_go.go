package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/civic-backend/internal/logger"
)

// Logger интерфейс для логирования ошибок, ему удовлетворяет *logrus.Logger
type Logger interface {
	WithFields(fields logrus.Fields) *logrus.Entry
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger func() Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(l Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: func() Logger { return l }}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func (rh *RecoveryHandler) SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer rh.recover("goroutine with context")
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(where string) {
	if r := recover(); r != nil {
		rh.logger().WithFields(logrus.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("panic recovered in " + where)
	}
}

// DefaultRecoveryHandler пишет в глобальный логгер, а до его инициализации в стандартный logrus
var DefaultRecoveryHandler = &RecoveryHandler{logger: func() Logger {
	if logger.Log != nil {
		return logger.Log
	}
	return logrus.StandardLogger()
}}

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// SafeGoWithContext - упрощенная функция для запуска безопасной горутины с контекстом
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	DefaultRecoveryHandler.SafeGoWithContext(ctx, fn)
}
