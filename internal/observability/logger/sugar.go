package logger

import (
	"context"

	"go.uber.org/zap"
)

// S returns the singleton's SugaredLogger for printf-style logging.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// SFrom extracts the SugaredLogger from the context.
func SFrom(ctx context.Context) *zap.SugaredLogger {
	return From(ctx).Sugar()
}
