package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

func (l *BaseLogger) emit(level Level, msg string, fields []Field) {
	attrs := attrsFromFieldSlice(fields)
	l.slogLogger.LogAttrs(context.Background(), toSlogLevel(level), msg, attrs...)
	if level == FatalLevel {
		os.Exit(1)
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.emit(DebugLevel, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.emit(InfoLevel, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.emit(WarnLevel, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.emit(ErrorLevel, msg, fields) }
func (l *BaseLogger) Fatal(msg string, fields ...Field) { l.emit(FatalLevel, msg, fields) }

func (l *BaseLogger) Debugf(format string, args ...interface{}) {
	l.emit(DebugLevel, fmt.Sprintf(format, args...), nil)
}
func (l *BaseLogger) Infof(format string, args ...interface{}) {
	l.emit(InfoLevel, fmt.Sprintf(format, args...), nil)
}
func (l *BaseLogger) Warnf(format string, args ...interface{}) {
	l.emit(WarnLevel, fmt.Sprintf(format, args...), nil)
}
func (l *BaseLogger) Errorf(format string, args ...interface{}) {
	l.emit(ErrorLevel, fmt.Sprintf(format, args...), nil)
}
func (l *BaseLogger) Fatalf(format string, args ...interface{}) {
	l.emit(FatalLevel, fmt.Sprintf(format, args...), nil)
}

// With returns a Logger with the given fields bound to every subsequent
// entry. The receiver is left untouched.
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	attrs := attrsFromFieldSlice(fields)
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &BaseLogger{
		level:      l.level,
		fields:     merged,
		formatter:  l.formatter,
		outputs:    l.outputs,
		slogLogger: slog.New(l.slogLogger.Handler().WithAttrs(attrs)),
	}
}

func (l *BaseLogger) WithField(key string, value interface{}) Logger {
	return l.With(Field{Key: key, Value: value})
}

func (l *BaseLogger) WithFields(fields Fields) Logger {
	return l.With(mapToFields(fields)...)
}

func (l *BaseLogger) WithError(err error) Logger {
	return l.With(Err(err))
}

func (l *BaseLogger) WithContext(ctx context.Context) Logger {
	return l.With(mapToFields(ContextExtractor(ctx))...)
}

func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

func (l *BaseLogger) SetLevel(level Level) {
	l.level = level
	if bh, ok := l.slogLogger.Handler().(*bridgeHandler); ok {
		bh.logger.level = level
	}
}

func (l *BaseLogger) GetLevel() Level { return l.level }
