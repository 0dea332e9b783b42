package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OrdersAndSkipsBlank(t *testing.T) {
	fsys := fstest.MapFS{
		"pg/002_more.sql":  {Data: []byte("CREATE TABLE b (id INT);")},
		"pg/001_init.sql":  {Data: []byte("CREATE TABLE a (id INT);")},
		"pg/003_empty.sql": {Data: []byte("  \n")},
		"pg/README.md":     {Data: []byte("not sql")},
	}

	got, err := load(fsys, "pg")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_init", got[0].version)
	assert.Equal(t, "002_more", got[1].version)
}

func TestLoad_EmbeddedSchemas(t *testing.T) {
	pg, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "token_events")

	ch, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, m := range ch {
		_, err := splitStatements(m.sql)
		assert.NoError(t, err, m.version)
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `-- header
CREATE TABLE a (x String DEFAULT 'it''s');
-- between
CREATE TABLE b (y Int64);

`
	stmts, err := splitStatements(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x String DEFAULT 'it''s')", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y Int64)", stmts[1])
}

func TestSplitStatements_SemicolonInString(t *testing.T) {
	_, err := splitStatements("INSERT INTO t VALUES ('a;b');")
	assert.ErrorIs(t, err, ErrSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/objkt")
	require.NoError(t, err)
	assert.Equal(t, "objkt", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`objkt`", quoteIdent("objkt"))
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}
