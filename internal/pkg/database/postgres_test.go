package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init(logger.Config{Level: "error", Format: "console"})
	os.Exit(m.Run())
}

func TestTruncateSQL(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		maxLen   int
		expected string
	}{
		{"short SQL unchanged", "SELECT * FROM farms", 100, "SELECT * FROM farms"},
		{"exactly at max length", "SELECT * FROM farms", 19, "SELECT * FROM farms"},
		{"truncated with ellipsis", "SELECT * FROM farms WHERE id = 1", 20, "SELECT * FROM farms ..."},
		{"empty string", "", 10, ""},
		{"max length of 0", "SELECT", 0, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncateSQL(tt.sql, tt.maxLen))
		})
	}
}

func TestQueryTracer(t *testing.T) {
	t.Run("start stores time and sql", func(t *testing.T) {
		tracer := &queryTracer{slow: time.Second}
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})

		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		assert.True(t, ok)
		assert.False(t, start.IsZero())
		assert.Equal(t, "SELECT 1", ctx.Value(querySQLKey{}))
	})

	t.Run("end without start is a no-op", func(t *testing.T) {
		tracer := &queryTracer{slow: time.Millisecond}
		assert.NotPanics(t, func() {
			tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
		})
	})

	t.Run("end with slow failed query logs", func(t *testing.T) {
		tracer := &queryTracer{slow: time.Nanosecond}
		ctx := context.WithValue(context.Background(), queryStartKey{}, time.Now().Add(-time.Second))
		ctx = context.WithValue(ctx, querySQLKey{}, "SELECT pg_sleep(1)")
		assert.NotPanics(t, func() {
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})
		})
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
