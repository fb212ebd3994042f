package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rbatis-go/rbatis/rdialect"
	"github.com/rbatis-go/rbatis/rdriver"
)

func TestConnectWithReturnsMSSQLDialectWithoutDialing(t *testing.T) {
	d := New()
	db, dialect, err := d.ConnectWith(context.Background(), rdriver.Options{
		Host: "127.0.0.1", Port: 1433, Database: "bench", User: "sa", Password: "pw",
	})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, rdialect.MSSQL, dialect)
}

func TestConnectParsesURL(t *testing.T) {
	d := New()
	db, dialect, err := d.Connect(context.Background(), "sqlserver://sa:pw@localhost:1433?database=mydb")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, rdialect.MSSQL, dialect)
}

func TestDefaultOptions(t *testing.T) {
	opts := New().DefaultOptions()
	assert.Equal(t, 1433, opts.Port)
}
