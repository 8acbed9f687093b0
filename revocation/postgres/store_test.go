package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/authchain/revocation"
)

func TestStore_Revoke(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   bool
	}{
		{
			name: "inserts digest",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(insertRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "already revoked is not an error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(insertRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(regexp.QuoteMeta(insertRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			err = NewStore(mock).Revoke(context.Background(), "refresh-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, revocation.ErrUnavailable)
				assert.Contains(t, err.Error(), "connection refused")
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_IsRevoked(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      bool
		wantErr   bool
	}{
		{
			name: "revoked",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: true,
		},
		{
			name: "not revoked",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: false,
		},
		{
			name: "database error fails closed",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectRevoked)).
					WithArgs(revocation.Digest("refresh-1")).
					WillReturnError(errors.New("timeout"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			got, err := NewStore(mock).IsRevoked(context.Background(), "refresh-1")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, revocation.ErrUnavailable)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/auth", MigrateURL("postgres://u:p@db:5432/auth"))
	assert.Equal(t, "pgx5://db/auth", MigrateURL("postgresql://db/auth"))
	assert.Equal(t, "pgx5://db/auth", MigrateURL("pgx5://db/auth"))
}
