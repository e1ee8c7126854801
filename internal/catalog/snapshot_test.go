package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapschema/internal/testutil"
	"github.com/leapstack-labs/leapschema/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// countingSource serves fixed metadata and counts calls.
type countingSource struct {
	tables  []string
	columns map[string][]core.ColumnInfo
	pks     map[string][]string
	failOn  string
	calls   map[string]int
}

func (s *countingSource) Tables(context.Context) ([]string, error) {
	s.calls["tables"]++
	return s.tables, nil
}

func (s *countingSource) Columns(_ context.Context, table string) ([]core.ColumnInfo, error) {
	s.calls["columns:"+table]++
	if table == s.failOn {
		return nil, errors.New("connection reset")
	}
	return s.columns[table], nil
}

func (s *countingSource) PrimaryKeys(_ context.Context, table string) ([]string, error) {
	s.calls["pks:"+table]++
	return s.pks[table], nil
}

func newCountingSource() *countingSource {
	return &countingSource{
		tables: []string{"users", "categories"},
		columns: map[string][]core.ColumnInfo{
			"users":      {{Name: "id", NativeType: core.NativeInteger}, {Name: "username", NativeType: core.NativeString}},
			"categories": {{Name: "id", NativeType: core.NativeInteger}},
		},
		pks:   map[string][]string{"users": {"id"}, "categories": {"id"}},
		calls: map[string]int{},
	}
}

func TestCapture(t *testing.T) {
	src := newCountingSource()

	snap, err := Capture(context.Background(), src, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"categories", "users"}, snap.Tables())
	assert.True(t, snap.HasTable("users"))
	assert.False(t, snap.HasTable("topics"))
	assert.Len(t, snap.Columns("users"), 2)
	assert.Nil(t, snap.Columns("topics"))
	assert.Equal(t, []string{"id"}, snap.PrimaryKeys("users"))

	// Repeated lookups never reach the source again.
	_ = snap.Columns("users")
	_ = snap.Tables()
	assert.Equal(t, map[string]int{
		"tables":             1,
		"columns:users":      1,
		"columns:categories": 1,
		"pks:users":          1,
		"pks:categories":     1,
	}, src.calls)
}

func TestCapture_TableWithoutColumns(t *testing.T) {
	src := newCountingSource()
	src.tables = append(src.tables, "empty_table")

	snap, err := Capture(context.Background(), src, nil)
	require.NoError(t, err)

	assert.True(t, snap.HasTable("empty_table"))
	assert.Empty(t, snap.Columns("empty_table"))
	assert.Equal(t, []string{"categories", "empty_table", "users"}, snap.Tables())
}

func TestCapture_Failure(t *testing.T) {
	src := newCountingSource()
	src.failOn = "users"

	_, err := Capture(context.Background(), src, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to capture columns of users")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSnapshot_Immutable(t *testing.T) {
	snap := New(map[string]TableMetadata{
		"users": {Columns: []core.ColumnInfo{{Name: "id"}}, PrimaryKeys: []string{"id"}},
	})

	cols := snap.Columns("users")
	cols[0].Name = "changed"
	tables := snap.Tables()
	tables[0] = "changed"

	assert.Equal(t, "id", snap.Columns("users")[0].Name)
	assert.Equal(t, []string{"users"}, snap.Tables())
}

func TestCapture_SQLiteFixture(t *testing.T) {
	ctx := context.Background()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: testutil.NewFixtureDatabase(t)}))
	defer func() { _ = adp.Close() }()

	snap, err := Capture(ctx, adp, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, testutil.FixtureTables, snap.Tables())
	assert.Equal(t, []string{"user_id", "topic_id"}, snap.PrimaryKeys("topic_users"))
	assert.Len(t, snap.Columns("posts"), 6)
}
