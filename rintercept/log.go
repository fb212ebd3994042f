package rintercept

import (
	"context"

	"github.com/rbatis-go/rbatis/logging"
	"github.com/rbatis-go/rbatis/rvalue"
	"go.uber.org/zap"
)

// LogInterceptor is the reserved, always-first-useful interceptor: it logs
// every statement's SQL, argument count and outcome at debug level (failures
// at warn level), the way
// the teacher's DB.Log periodic counter does for bulk operations, but per
// statement rather than aggregated.
type LogInterceptor struct {
	logger *logging.Logger
}

// NewLogInterceptor builds a LogInterceptor writing through logger.
func NewLogInterceptor(logger *logging.Logger) *LogInterceptor {
	return &LogInterceptor{logger: logger}
}

func (i *LogInterceptor) Name() string { return "log" }

func (i *LogInterceptor) Before(ctx context.Context, op Op, sql string, args []rvalue.Value) (string, []rvalue.Value, bool, error) {
	i.logger.Debugw("Executing statement", zap.Stringer("op", op), zap.String("sql", sql), zap.Int("args", len(args)))
	return sql, args, false, nil
}

func (i *LogInterceptor) After(ctx context.Context, op Op, sql string, rows []rvalue.Value, err error) ([]rvalue.Value, error) {
	if err != nil {
		i.logger.Warnw("Statement failed", zap.String("sql", sql), zap.Error(err))
	} else {
		i.logger.Debugw("Statement finished", zap.Stringer("op", op), zap.Int("rows", len(rows)))
	}
	return rows, err
}

var _ Interceptor = (*LogInterceptor)(nil)
