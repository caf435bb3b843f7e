package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("estado,preço")...),
			expected: "estado,preço",
		},
		{
			name:     "file without BOM",
			input:    []byte("estado,preço"),
			expected: "estado,preço",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
		{
			name:     "BOM later in stream is kept",
			input:    append([]byte("a"), 0xEF, 0xBB, 0xBF),
			expected: string([]byte{'a', 0xEF, 0xBB, 0xBF}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestCountingReader(t *testing.T) {
	input := strings.Repeat("x", 1000)
	reader := NewCountingReader(strings.NewReader(input), int64(len(input)))

	buf := make([]byte, 100)
	totalRead := 0
	for {
		n, err := reader.Read(buf)
		totalRead += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if totalRead != len(input) {
		t.Errorf("total read = %d, want %d", totalRead, len(input))
	}
	if reader.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d", reader.BytesRead, len(input))
	}
	if reader.Progress() != 100 {
		t.Errorf("Progress = %d, want 100", reader.Progress())
	}
}

func TestCountingReader_UnknownTotal(t *testing.T) {
	reader := NewCountingReader(strings.NewReader("abc"), 0)
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reader.Progress() != 0 {
		t.Errorf("Progress = %d, want 0 for unknown total", reader.Progress())
	}
}

func TestWrapSource(t *testing.T) {
	// BOM followed by an invalid UTF-8 byte
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	reader, counter := wrapSource(bytes.NewReader(input), int64(len(input)))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "he�lo"
	if string(result) != expected {
		t.Errorf("got %q, want %q", string(result), expected)
	}
	if counter.BytesRead != int64(len(input)) {
		t.Errorf("BytesRead = %d, want %d (raw bytes, BOM included)", counter.BytesRead, len(input))
	}
}
