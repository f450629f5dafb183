// Package utils provides small generic helpers shared by the other
// tracktolib packages: slice chunking, map normalization and a JSON
// encoder that knows about the value types the library passes around.
package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
)

// Chunks splits items into consecutive chunks of at most size elements.
// The last chunk may be shorter. A size <= 0 yields a single chunk.
func Chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}

	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// ChunkBytes reads r in chunks of at most size bytes and calls fn with
// each chunk. The buffer is reused between calls, so fn must copy the
// chunk if it keeps it.
func ChunkBytes(r io.Reader, size int, fn func(chunk []byte) error) error {
	if size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", size)
	}
	buf := make([]byte, size)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if err := fn(buf[:n]); err != nil {
				return err
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FillMaps returns a copy of items where every map carries the same key
// set. Missing keys are added with the zero value. When keys is nil, the
// union of all keys found in items is used.
func FillMaps[V any](items []map[string]V, keys []string) []map[string]V {
	if len(items) == 0 {
		return nil
	}

	if keys == nil {
		seen := make(map[string]struct{})
		for _, item := range items {
			for k := range item {
				seen[k] = struct{}{}
			}
		}
		keys = SortedKeys(seen)
	}

	out := make([]map[string]V, len(items))
	for i, item := range items {
		filled := make(map[string]V, len(keys))
		for _, k := range keys {
			filled[k] = item[k]
		}
		out[i] = filled
	}
	return out
}

// CountLines returns the number of lines in the file at path.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	nb := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		nb++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return nb, nil
}

// RunCmd runs cmd through the user's shell ($SHELL, falling back to
// /bin/bash) and returns stdout. A non-empty stderr is returned as an
// error even when the command exits 0, matching the historical behavior
// of the library.
func RunCmd(cmd string) (string, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/bash"
	}

	var stdout, stderr bytes.Buffer
	c := exec.Command(shell, "-c", cmd)
	c.Stdout = &stdout
	c.Stderr = &stderr
	runErr := c.Run()

	if stderr.Len() > 0 {
		return "", fmt.Errorf("command failed: %s", stderr.String())
	}
	if runErr != nil {
		return "", runErr
	}
	return stdout.String(), nil
}
