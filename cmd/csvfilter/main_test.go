package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendas.csv")
	content := "estado,preço,data\nSP,378.02,2023-01-15\nsp ,378.025,2023-01-16\nRJ,378.02,2023-01-17\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestQuery(t *testing.T) {
	path := writeSales(t)

	code, out, errOut := runCLI(t, "query", "-file", path, "-where", "estado=SP", "-where", "preço=378.02", "-tol", "0.01")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "estado,preço,data\nSP,378.02,2023-01-15\nsp ,378.025,2023-01-16\n", out)
}

func TestQuery_PositionalFileAndCount(t *testing.T) {
	path := writeSales(t)

	code, out, errOut := runCLI(t, "query", "-where", "preço=378.02", "-count", path)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "2\n", out)
}

func TestQuery_NoConstraintsReturnsEverything(t *testing.T) {
	path := writeSales(t)

	code, out, _ := runCLI(t, "query", "-count", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "3\n", out)
}

func TestQuery_CaseSensitive(t *testing.T) {
	path := writeSales(t)

	code, out, _ := runCLI(t, "query", "-case-sensitive", "-where", "estado=sp", "-count", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "0\n", out)
}

func TestQuery_JSON(t *testing.T) {
	path := writeSales(t)

	code, out, _ := runCLI(t, "query", "-format", "json", "-where", "estado=RJ", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"rows":1`)
}

func TestQuery_Errors(t *testing.T) {
	path := writeSales(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"unknown column", []string{"query", "-where", "cidade=X", path}, 1, `unknown column "cidade"`},
		{"missing file", []string{"query", filepath.Join(t.TempDir(), "nope.csv")}, 1, "FILE001"},
		{"negative tolerance", []string{"query", "-tol", "-1", "-where", "preço=1", path}, 1, "FLT004"},
		{"malformed where", []string{"query", "-where", "estado", path}, 2, "want column=value"},
		{"no file", []string{"query"}, 2, "-file is required"},
		{"file flag and argument", []string{"query", "-file", path, "-count", path}, 2, "file given twice"},
		{"two file arguments", []string{"query", "-count", path, path}, 2, "expected one file"},
		{"unknown command", []string{"frobnicate"}, 2, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, _, errOut := runCLI(t)
	assert.Equal(t, 2, code)
	assert.True(t, strings.HasPrefix(errOut, "usage: csvfilter"))
}

func TestWhereFlags(t *testing.T) {
	var w whereFlags
	require.NoError(t, w.Set("a=1"))
	require.NoError(t, w.Set("b=x=y"))
	assert.Equal(t, []string{"a", "b"}, w.columns)
	assert.Equal(t, []string{"1", "x=y"}, w.values)
	assert.Equal(t, "a=1,b=x=y", w.String())
	assert.Error(t, w.Set("=1"))
}
