package kvstore

import (
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

var _ badger.Logger = (*zapLogger)(nil)

// zapLogger routes badger's printf-style logging into zap
type zapLogger struct {
	logger *zap.Logger
}

func newZapLogger(logger *zap.Logger) *zapLogger {
	return &zapLogger{logger: logger.With(zap.String("component", "badger"))}
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.logger.Error(message(format, args...))
}

func (l *zapLogger) Warningf(format string, args ...any) {
	l.logger.Warn(message(format, args...))
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.logger.Info(message(format, args...))
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.logger.Debug(message(format, args...))
}

// badger terminates most lines with a newline
func message(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
