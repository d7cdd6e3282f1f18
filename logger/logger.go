package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

const RequestIdKey = "X-Request-Id"

const (
	loggerDebug = "DEBUG"
	loggerInfo  = "INFO"
	loggerWarn  = "WARN"
	loggerError = "ERR"
)

var debugEnabled = os.Getenv("DEBUG") == "true"

func LogDebug(ctx context.Context, msg string) {
	if debugEnabled {
		logHelper(ctx, loggerDebug, msg)
	}
}

func LogInfo(ctx context.Context, msg string) {
	logHelper(ctx, loggerInfo, msg)
}

func LogWarn(ctx context.Context, msg string) {
	logHelper(ctx, loggerWarn, msg)
}

func LogError(ctx context.Context, msg string) {
	logHelper(ctx, loggerError, msg)
}

func logHelper(ctx context.Context, level string, msg string) {
	writer := gin.DefaultWriter
	if level == loggerError {
		writer = gin.DefaultErrorWriter
	}
	id := ctx.Value(RequestIdKey)
	if id == nil {
		id = ""
	}
	now := time.Now()
	_, _ = fmt.Fprintf(writer, "[%s] %v | %s | %s \n", level, now.Format("2006/01/02 - 15:04:05"), id, msg)
}
