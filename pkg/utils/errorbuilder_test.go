package utils

import (
	"context"
	"errors"
	"testing"
	"upmon/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWrapRepoError(t *testing.T) {
	logger := zerolog.Nop()

	cases := []struct {
		name       string
		err        error
		notFoundOK bool
		wantKind   apperror.Kind
	}{
		{"context canceled", context.Canceled, false, apperror.RequestTimeout},
		{"context deadline", context.DeadlineExceeded, false, apperror.RequestTimeout},
		{"no rows where expected", pgx.ErrNoRows, true, apperror.NotFound},
		{"no rows where unexpected", pgx.ErrNoRows, false, apperror.Internal},
		{"postgres error", &pgconn.PgError{Code: "23505", ConstraintName: "monitors_user_url_unique"}, false, apperror.DatabaseErr},
		{"anything else", errors.New("boom"), false, apperror.Internal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := WrapRepoError("repo.monitor.fetch_due", tc.err, tc.notFoundOK, &logger)

			require.True(t, apperror.IsKind(wrapped, tc.wantKind))
			require.ErrorIs(t, wrapped, tc.err)
			require.Contains(t, wrapped.Error(), "repo.monitor.fetch_due")
		})
	}
}
