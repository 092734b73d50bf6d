package migrations

import (
	"io/fs"
	"testing"

	"github.com/shoenig/test/must"
)

func TestFiles(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(Files(), "*.up.sql")
	must.NoError(t, err)
	must.SliceLen(t, 1, ups)

	downs, err := fs.Glob(Files(), "*.down.sql")
	must.NoError(t, err)
	must.SliceLen(t, len(ups), downs)

	// scs/mysqlstore reads and writes exactly these columns.
	b, err := fs.ReadFile(Files(), "000001_create_sessions_table.up.sql")
	must.NoError(t, err)
	for _, column := range []string{"token CHAR(43)", "data BLOB", "expiry TIMESTAMP(6)"} {
		must.StrContains(t, string(b), column)
	}
}
