package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClickHouseDBClose(t *testing.T) {
	db := &ClickHouseDB{Conn: nil}
	assert.NoError(t, db.Close())
}

func TestSplitStatements(t *testing.T) {
	script := `
-- comment line
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (
    y String -- trailing comments are kept
) ENGINE = Memory;
;
`
	stmts := SplitStatements(script)

	assert.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.Contains(t, stmts[1], "y String")
}

func TestEmbeddedSchemaHasAllTables(t *testing.T) {
	stmts := SplitStatements(clickhouseSchema)

	assert.Len(t, stmts, 3)
	for _, table := range []string{"weather_observations", "market_prices", "soil_moisture_readings"} {
		assert.Contains(t, clickhouseSchema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
