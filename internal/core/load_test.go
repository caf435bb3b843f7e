package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendas.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func cell(t *testing.T, tbl *Table, row int, col string) Value {
	t.Helper()
	v, err := tbl.Value(row, col)
	require.NoError(t, err)
	return v
}

func TestLoad_DefaultCoercions(t *testing.T) {
	path := writeCSV(t, "\xEF\xBB\xBFestado,preço,data,obs\n"+
		"SP,378.02,2023-01-15,ok\n"+
		"sp ,abc,,\n"+
		"RJ,\"1,500.00\",not a date,x\n")

	tbl, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"estado", "preço", "data", "obs"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, path, tbl.Source)

	kind, _ := tbl.ColumnKind("preço")
	assert.Equal(t, KindNumber, kind)
	kind, _ = tbl.ColumnKind("data")
	assert.Equal(t, KindTemporal, kind)
	kind, _ = tbl.ColumnKind("estado")
	assert.Equal(t, KindText, kind)

	assert.True(t, cell(t, tbl, 0, "preço").Equal(Number(378.02)))
	assert.True(t, cell(t, tbl, 1, "preço").IsMissing(), "unparseable number becomes Missing")
	assert.True(t, cell(t, tbl, 2, "preço").Equal(Number(1500)))

	assert.True(t, cell(t, tbl, 0, "data").Equal(Temporal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC))))
	assert.True(t, cell(t, tbl, 1, "data").IsMissing(), "blank date becomes Missing")
	assert.True(t, cell(t, tbl, 2, "data").IsMissing(), "unparseable date becomes Missing")

	assert.True(t, cell(t, tbl, 1, "estado").Equal(Text("sp ")), "text is kept verbatim")
	assert.True(t, cell(t, tbl, 1, "obs").Equal(Text("")), "uncoerced blank stays empty text")
}

func TestLoad_SourceNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(missing)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.Contains(t, err.Error(), missing)

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrSourceNotFound, "a directory is not a source")
}

func TestLoad_EmptyFile(t *testing.T) {
	for name, content := range map[string]string{
		"no bytes": "",
		"only BOM": "\xEF\xBB\xBF",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeCSV(t, content))
			assert.ErrorIs(t, err, ErrEmptyFile)
		})
	}
}

func TestLoad_HeaderOnly(t *testing.T) {
	tbl, err := Load(writeCSV(t, "estado,preço\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumColumns())

	kind, _ := tbl.ColumnKind("preço")
	assert.Equal(t, KindNumber, kind, "an empty coerced column keeps its declared kind")
}

func TestLoad_RaggedRows(t *testing.T) {
	t.Run("short rows are padded with Missing", func(t *testing.T) {
		tbl, err := Load(writeCSV(t, "estado,preço,obs\nSP\nRJ,10\n"))
		require.NoError(t, err)

		assert.True(t, cell(t, tbl, 0, "preço").IsMissing())
		assert.True(t, cell(t, tbl, 0, "obs").IsMissing())
		assert.True(t, cell(t, tbl, 1, "preço").Equal(Number(10)))
		assert.True(t, cell(t, tbl, 1, "obs").IsMissing())
	})

	t.Run("long rows are rejected", func(t *testing.T) {
		_, err := Load(writeCSV(t, "estado,preço\nSP,1\nRJ,2,extra\n"))
		assert.ErrorIs(t, err, ErrInvalidCSV)
		assert.Contains(t, err.Error(), "line 3")
	})
}

func TestLoad_DuplicateHeader(t *testing.T) {
	_, err := Load(writeCSV(t, "estado,estado\nSP,RJ\n"))
	assert.ErrorIs(t, err, ErrInvalidCSV)
	assert.Contains(t, err.Error(), `duplicate column "estado"`)
}

func TestLoad_QuotedFields(t *testing.T) {
	tbl, err := Load(writeCSV(t, "estado,obs\nSP,\"a, b\"\nRJ,\"line one\nline two\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.NumRows())
	assert.True(t, cell(t, tbl, 0, "obs").Equal(Text("a, b")))
	assert.True(t, cell(t, tbl, 1, "obs").Equal(Text("line one\nline two")))
}

func TestLoad_InvalidUTF8IsReplaced(t *testing.T) {
	tbl, err := Load(writeCSV(t, "estado\nS\x80P\n"))
	require.NoError(t, err)
	assert.True(t, cell(t, tbl, 0, "estado").Equal(Text("S�P")))
}

func TestLoader_Delimiter(t *testing.T) {
	loader := &Loader{Delimiter: ';', Coercions: DefaultCoercions()}

	tbl, err := loader.Load(context.Background(), writeCSV(t, "estado;preço\nSP;378.02\n"))
	require.NoError(t, err)
	assert.True(t, cell(t, tbl, 0, "preço").Equal(Number(378.02)))
}

func TestLoader_CustomCoercions(t *testing.T) {
	loader := &Loader{Coercions: CoercionsFor([]string{"quando"}, []string{"valor", "frete"})}

	tbl, err := loader.LoadReader(context.Background(),
		strings.NewReader("quando,valor,frete,preço\n2024-02-01,10,2.5,378.02\n"), "inline")
	require.NoError(t, err)

	assert.Equal(t, "inline", tbl.Source)
	assert.Equal(t, KindTemporal, cell(t, tbl, 0, "quando").Kind())
	assert.Equal(t, KindNumber, cell(t, tbl, 0, "frete").Kind())
	assert.Equal(t, KindText, cell(t, tbl, 0, "preço").Kind(), "preço is only coerced by the defaults")
}

func TestLoader_LaterCoercionWins(t *testing.T) {
	loader := &Loader{Coercions: []Coercion{NumericCoercion("x"), TemporalCoercion("x")}}

	tbl, err := loader.LoadReader(context.Background(), strings.NewReader("x\n2024-02-01\n"), "inline")
	require.NoError(t, err)
	assert.Equal(t, KindTemporal, cell(t, tbl, 0, "x").Kind())
}

func TestLoader_MaxBytes(t *testing.T) {
	content := "estado,preço\n" + strings.Repeat("SP,1\n", 100)
	loader := &Loader{MaxBytes: 64}

	_, err := loader.Load(context.Background(), writeCSV(t, content))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = loader.LoadReader(context.Background(), strings.NewReader(content), "inline")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestLoader_Cancelled(t *testing.T) {
	content := "estado\n" + strings.Repeat("SP\n", 3*ContextCheckInterval)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DefaultLoader().Load(ctx, writeCSV(t, content))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoader_CheckIntervalBelowOne(t *testing.T) {
	original := ContextCheckInterval
	defer func() { ContextCheckInterval = original }()

	for _, interval := range []int{0, -5} {
		ContextCheckInterval = interval

		tbl, err := DefaultLoader().LoadReader(context.Background(), strings.NewReader("estado\nSP\nRJ\n"), "inline")
		require.NoError(t, err, "interval %d", interval)
		assert.Equal(t, 2, tbl.NumRows())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = DefaultLoader().LoadReader(ctx, strings.NewReader("estado\nSP\n"), "inline")
		assert.ErrorIs(t, err, context.Canceled, "interval %d", interval)
	}
}

func TestLoad_TablesAreIndependent(t *testing.T) {
	path := writeCSV(t, "estado\nSP\n")

	a, err := Load(path)
	require.NoError(t, err)
	b, err := Load(path)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}
