package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbatis-go/rbatis/rdialect"
)

func TestConnectInMemory(t *testing.T) {
	d := New()
	db, dialect, err := d.Connect(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, rdialect.SQLite, dialect)
	require.NoError(t, db.Ping())
}

func TestConnectRunsQueries(t *testing.T) {
	d := New()
	db, _, err := d.Connect(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("create table t (id integer primary key, name text)")
	require.NoError(t, err)

	_, err = db.Exec("insert into t (id, name) values (1, 'a')")
	require.NoError(t, err)

	rows, err := db.Query("select id, name from t")
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	require.True(t, rows.Next())
	var id int
	var name string
	require.NoError(t, rows.Scan(&id, &name))
	assert.Equal(t, 1, id)
	assert.Equal(t, "a", name)
}
