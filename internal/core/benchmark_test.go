package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"
)

// ============================================================================
// Conversion Benchmarks
// ============================================================================

// BenchmarkToPgNumeric covers the formats a numeric column may hold.
func BenchmarkToPgNumeric(b *testing.B) {
	testCases := []string{
		"378.02",
		"-456.78",
		"$1,234.56",
		"(123.45)",
		"1,234,567.89",
		"  999.99  ",
		"€1234.56",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgNumeric(tc)
		}
	}
}

// BenchmarkParseNumber benchmarks the plain decimal case.
func BenchmarkParseNumber(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ParseNumber("378.025")
	}
}

// BenchmarkToPgDate covers the accepted date layouts.
func BenchmarkToPgDate(b *testing.B) {
	testCases := []string{
		"2024-01-15",
		"01/15/2024",
		"Jan 15, 2024",
		"20240115",
		"1/5/24",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ToPgDate(tc)
		}
	}
}

// BenchmarkParseTemporal benchmarks timestamps, which try more layouts than dates.
func BenchmarkParseTemporal(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ParseTemporal("2024-01-15 10:30:00")
	}
}

// BenchmarkCleanCell benchmarks spreadsheet artifact removal.
func BenchmarkCleanCell(b *testing.B) {
	testCases := []string{
		"plain",
		`="0123"`,
		"  padded  ",
		" nbsp ",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanCell(tc)
		}
	}
}

// ============================================================================
// Loading Benchmarks
// ============================================================================

func BenchmarkLoadReader(b *testing.B) {
	for _, rows := range []int{1000, 50000} {
		data := generateTestCSV(rows)
		b.Run(strconv.Itoa(rows), func(b *testing.B) {
			loader := DefaultLoader()
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := loader.LoadReader(context.Background(), bytes.NewReader(data), "bench.csv"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkLoadReader_Uncoerced isolates CSV parsing and UTF-8 decoding.
func BenchmarkLoadReader_Uncoerced(b *testing.B) {
	data := generateTestCSV(50000)
	loader := &Loader{}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := loader.LoadReader(context.Background(), bytes.NewReader(data), "bench.csv"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBOMSkippingReader(b *testing.B) {
	data := append([]byte("\xef\xbb\xbf"), generateTestCSV(10000)...)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		io.Copy(io.Discard, NewBOMSkippingReader(bytes.NewReader(data)))
	}
}

// ============================================================================
// Filter Benchmarks
// ============================================================================

func benchTable(b *testing.B, rows int) *Table {
	b.Helper()
	t, err := DefaultLoader().LoadReader(context.Background(), bytes.NewReader(generateTestCSV(rows)), "bench.csv")
	if err != nil {
		b.Fatal(err)
	}
	return t
}

func BenchmarkFilter_Text(b *testing.B) {
	t := benchTable(b, 50000)
	opts := DefaultOptions()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Filter(t, []string{"estado"}, Values("sp"), opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFilter_CaseSensitive(b *testing.B) {
	t := benchTable(b, 50000)
	opts := DefaultOptions()
	opts.CaseInsensitive = false
	opts.Strip = false

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Filter(t, []string{"estado"}, Values("SP"), opts); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFilter_NumericTolerance(b *testing.B) {
	t := benchTable(b, 50000)
	opts := DefaultOptions().WithTolerance(0.01)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Filter(t, []string{"preço"}, Values(378.02), opts); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFilter_Constraints compares sequential and parallel evaluation.
func BenchmarkFilter_Constraints(b *testing.B) {
	t := benchTable(b, 50000)
	columns := []string{"estado", "preço", "data", "produto"}
	values := Values("SP", 378.02, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "caneta")

	for _, parallel := range []bool{false, true} {
		b.Run(fmt.Sprintf("parallel=%v", parallel), func(b *testing.B) {
			opts := DefaultOptions().WithTolerance(0.01)
			opts.Parallel = parallel
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Filter(t, columns, values, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFilterParallel(b *testing.B) {
	t := benchTable(b, 10000)
	opts := DefaultOptions().WithTolerance(0.01)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			Filter(t, []string{"estado", "preço"}, Values("SP", 378.02), opts)
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates sales data with the specified number of rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	states := []string{"SP", "sp ", "RJ", "MG", "Sp"}
	products := []string{"caneta", "lápis", "caderno"}

	w.Write([]string{"estado", "produto", "preço", "data"})
	for i := 0; i < rows; i++ {
		w.Write([]string{
			states[i%len(states)],
			products[i%len(products)],
			strconv.FormatFloat(378+float64(i%7)*0.005, 'f', 3, 64),
			fmt.Sprintf("2024-01-%02d", i%28+1),
		})
	}
	w.Flush()

	return buf.Bytes()
}
