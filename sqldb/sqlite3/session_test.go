package sqlite3

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	store, err := NewSessionStore(db)
	require.NoError(t, err)

	// creating the table twice is fine
	_, err = NewSessionStore(db)
	require.NoError(t, err)

	require.NoError(t, store.Commit("token", []byte("data"), time.Now().Add(time.Hour)))

	b, found, err := store.Find("token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("data"), b)

	require.NoError(t, store.Delete("token"))
	_, found, err = store.Find("token")
	require.NoError(t, err)
	assert.False(t, found)
}
