package logger

import (
	"os"
	"path/filepath"

	"github.com/agrimart/storefront/config"
	"github.com/agrimart/storefront/internal/constants"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger = zap.NewNop()
	Sugar  = Logger.Sugar()
)

// InitLogger initializes the global Zap logger. Output goes to stdout and
// stderr; when cfg.App.LogsPath is set, JSON copies are also appended to
// info.log and error.log under that directory.
func InitLogger(cfg *config.Config) error {
	zapLevel := zapcore.DebugLevel
	if cfg.App.Environment == constants.EnvProduction {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var stdEncoder zapcore.Encoder
	if cfg.App.Environment == constants.EnvProduction {
		stdEncoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		consoleConfig := encoderConfig
		consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		stdEncoder = zapcore.NewConsoleEncoder(consoleConfig)
	}

	belowError := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapLevel && l < zapcore.ErrorLevel
	})
	cores := []zapcore.Core{
		zapcore.NewCore(stdEncoder, zapcore.AddSync(os.Stdout), belowError),
		zapcore.NewCore(stdEncoder, zapcore.AddSync(os.Stderr), zapcore.ErrorLevel),
	}

	if cfg.App.LogsPath != "" {
		fileCores, err := fileCores(cfg.App.LogsPath, encoderConfig, zapLevel)
		if err != nil {
			return err
		}
		cores = append(cores, fileCores...)
	}

	Logger = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Environment)),
	)
	Sugar = Logger.Sugar()

	return nil
}

func fileCores(logsPath string, encoderConfig zapcore.EncoderConfig, level zapcore.Level) ([]zapcore.Core, error) {
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return nil, err
	}

	infoFile, err := os.OpenFile(filepath.Join(logsPath, "info.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	errorFile, err := os.OpenFile(filepath.Join(logsPath, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		infoFile.Close()
		return nil, err
	}

	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)
	return []zapcore.Core{
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(infoFile), level),
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(errorFile), zapcore.ErrorLevel),
	}, nil
}

// GetLogger returns the structured logger
func GetLogger() *zap.Logger {
	return Logger
}

// GetSugarLogger returns the sugared logger
func GetSugarLogger() *zap.SugaredLogger {
	return Sugar
}

// SetLogger replaces the global logger, mostly for tests.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Logger = l
	Sugar = l.Sugar()
}

// Sync syncs all logs (call this before application exits)
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// WithFields adds structured fields to the logger
func WithFields(fields ...zap.Field) *zap.Logger {
	return Logger.With(fields...)
}

// LogRequest logs HTTP request information
func LogRequest(requestID, method, path string, statusCode int, durationMs int64, clientIP string) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
		zap.String("client_ip", clientIP),
	}
	switch {
	case statusCode >= 500:
		Logger.Error("HTTP Request", fields...)
	case statusCode >= 400:
		Logger.Warn("HTTP Request", fields...)
	default:
		Logger.Info("HTTP Request", fields...)
	}
}

// LogError logs error with stack trace
func LogError(err error, message string, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Error(err)}, fields...)
	Logger.Error(message, allFields...)
}

// LogPanic logs panic and recovers
func LogPanic(recovered interface{}) {
	Logger.Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}

// LogUpstream logs a call to the marketplace API.
func LogUpstream(endpoint string, statusCode int, durationMs int64, err error) {
	fields := []zap.Field{
		zap.String("endpoint", endpoint),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}
	if err != nil {
		Logger.Warn("Upstream call failed", append(fields, zap.Error(err))...)
		return
	}
	Logger.Debug("Upstream call", fields...)
}
