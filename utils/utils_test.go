package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBytes(t *testing.T) {
	var sizes []int
	var collected bytes.Buffer
	err := ChunkBytes(strings.NewReader(strings.Repeat("a", 2500)), 1000, func(chunk []byte) error {
		sizes = append(sizes, len(chunk))
		collected.Write(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
	assert.Equal(t, 2500, collected.Len())

	err = ChunkBytes(strings.NewReader("abc"), 0, nil)
	require.Error(t, err)

	err = ChunkBytes(strings.NewReader("abc"), 2, func(chunk []byte) error {
		return fmt.Errorf("stop")
	})
	assert.EqualError(t, err, "stop")
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{
			name:  "even split",
			items: []int{1, 2, 3, 4},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:  "uneven split",
			items: []int{1, 2, 3, 4, 5},
			size:  2,
			want:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:  "size larger than input",
			items: []int{1, 2},
			size:  10,
			want:  [][]int{{1, 2}},
		},
		{
			name:  "empty input",
			items: nil,
			size:  3,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.items, tt.size))
		})
	}
}

func TestFillMaps(t *testing.T) {
	items := []map[string]any{
		{"a": 1},
		{"b": 2},
	}

	got := FillMaps(items, nil)
	want := []map[string]any{
		{"a": 1, "b": nil},
		{"a": nil, "b": 2},
	}
	assert.Equal(t, want, got)
}

func TestFillMapsExplicitKeys(t *testing.T) {
	items := []map[string]any{{"a": 1, "c": 3}}

	got := FillMaps(items, []string{"a", "b"})
	assert.Equal(t, []map[string]any{{"a": 1, "b": nil}}, got)
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(m))
}

func TestCountLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o600))

	nb, err := CountLines(path)
	require.NoError(t, err)
	assert.Equal(t, 3, nb)
}

func TestMarshal(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	data, err := Marshal(map[string]any{
		"when": ts,
		"n":    1,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2024-01-15T10:30:00Z","n":1}`, string(data))
}

func TestMarshalNested(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	data, err := Marshal([]map[string]any{{"dates": []any{ts}}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"dates":["2024-01-15T10:30:00Z"]}]`, string(data))
}
