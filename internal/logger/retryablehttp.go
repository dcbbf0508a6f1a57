package logger

// RetryableHTTPLogger adapts Logger to retryablehttp.LeveledLogger
type RetryableHTTPLogger struct {
	l *Logger
}

func NewRetryableHTTPLogger(l *Logger) *RetryableHTTPLogger {
	if l == nil {
		l = NewNoopLogger()
	}
	return &RetryableHTTPLogger{l: &Logger{SugaredLogger: l.SugaredLogger.With("component", "httpclient")}}
}

func (r *RetryableHTTPLogger) Error(msg string, keysAndValues ...interface{}) {
	r.l.Errorw(msg, keysAndValues...)
}

func (r *RetryableHTTPLogger) Info(msg string, keysAndValues ...interface{}) {
	r.l.Infow(msg, keysAndValues...)
}

func (r *RetryableHTTPLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.l.Debugw(msg, keysAndValues...)
}

func (r *RetryableHTTPLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.l.Warnw(msg, keysAndValues...)
}
