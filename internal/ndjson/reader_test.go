package ndjson

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for {
		line, err := r.ReadLine()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, string(line))
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "{\"a\":1}\n", want: []string{`{"a":1}`}},
		{name: "no trailing newline", input: "{\"a\":1}\n{\"b\":2}", want: []string{`{"a":1}`, `{"b":2}`}},
		{name: "blank lines skipped", input: "\n\n{\"a\":1}\n\n  \n{\"b\":2}\n", want: []string{`{"a":1}`, `{"b":2}`}},
		{name: "crlf", input: "{\"a\":1}\r\n", want: []string{`{"a":1}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readAll(t, NewReader(strings.NewReader(tt.input))))
		})
	}
}

func TestReadLine_LongLine(t *testing.T) {
	long := `{"text":"` + strings.Repeat("名", 100_000) + `"}`
	got := readAll(t, NewReader(strings.NewReader(long+"\n")))
	require.Len(t, got, 1)
	assert.Equal(t, long, got[0])
}
