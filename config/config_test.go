package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// NewConfig is once-guarded, so a single call checks both that tag
// defaults fill untouched fields and that options override them.
func TestNewConfig_OptionsOverrideDefaults(t *testing.T) {
	cfg := NewConfig(
		WithFinePerDay(99),
		WithLogLevel(zapcore.DebugLevel),
		WithWriteTimeout(time.Minute),
	)

	require.Equal(t, 99, cfg.Loan.FinePerDay)
	require.Equal(t, zapcore.DebugLevel, cfg.Log.LogLevel)
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)

	// untouched knobs keep their defaults
	require.Equal(t, 14, cfg.Loan.DefaultBorrowDays)
	require.Equal(t, "00:00", cfg.Loan.SweepAt)
	require.Equal(t, 24*time.Hour, cfg.Loan.SweepInterval)
}
