package store

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestMapConstraintErr(t *testing.T) {
	// Postgres integrity violations (class 23) map without registration.
	require.ErrorIs(t, mapConstraintErr(&pq.Error{Code: "23505"}), ErrConflict)

	// Other pq errors pass through untouched.
	serialization := &pq.Error{Code: "40001"}
	require.Equal(t, error(serialization), mapConstraintErr(serialization))

	// The sqlite classifier registered by this suite maps its
	// constraint errors too.
	require.ErrorIs(t, mapConstraintErr(sqlite3.Error{Code: sqlite3.ErrConstraint}), ErrConflict)

	plain := errors.New("connection reset")
	require.Equal(t, plain, mapConstraintErr(plain))
	require.NoError(t, mapConstraintErr(nil))
}
