package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	local := PostgresConfig{User: "carnego", Password: "pw", Name: "carnego", Host: "localhost", Port: "5432"}
	assert.Equal(t, "host=localhost user=carnego password=pw dbname=carnego port=5432 sslmode=disable", local.DSN())

	cloud := local
	cloud.InstanceConnectionName = "proj:eu:db"
	assert.Equal(t, "host=/cloudsql/proj:eu:db user=carnego password=pw dbname=carnego sslmode=disable", cloud.DSN())
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLConfig{User: "user", Password: "password", Addr: "127.0.0.1:3306", Name: "carnego"}.DSN()

	parsed, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "user", parsed.User)
	assert.Equal(t, "127.0.0.1:3306", parsed.Addr)
	assert.Equal(t, "carnego", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}
