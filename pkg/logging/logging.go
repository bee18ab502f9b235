// Package logging sets up the process's structured logger, following
// the pattern the teacher's ecosystem uses for MPC session management:
// a zap SugaredLogger with an atomic level, writing to stdout and,
// when a log directory is configured, to a rotating lumberjack file
// sink at the same time.
package logging

import (
	"fmt"
	"os"
	"strings"

	lbj "gopkg.in/natefinch/lumberjack.v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger at the given level, optionally also
// writing to logDir/covenant.log. An empty logDir logs to stdout only.
func New(level, logDir string) *zap.SugaredLogger {
	atomicLevel := zap.NewAtomicLevelAt(parseLevel(level))

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if logDir != "" {
		sinks = append(sinks, zapcore.AddSync(&lbj.Logger{
			Filename:   logDir + "/covenant.log",
			MaxSize:    4,
			MaxBackups: 15,
		}))
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		atomicLevel,
	)
	return zap.New(core, zap.WithCaller(true)).Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug", "verbose":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error", "err":
		return zap.ErrorLevel
	case "info", "":
		return zap.InfoLevel
	default:
		panic(fmt.Sprintf("logging: unsupported level %q", level))
	}
}
