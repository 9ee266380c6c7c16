package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "data: {\"a\":1}\n\n: keep-alive\ndata: {\"b\":\"é\"}\r\n\r\ndata: [DONE]\n"

func feedInChunks(t *testing.T, input []byte, size int) []string {
	t.Helper()
	tok := &LineTokenizer{}
	var lines []string
	for start := 0; start < len(input); start += size {
		end := start + size
		if end > len(input) {
			end = len(input)
		}
		lines = append(lines, tok.Feed(input[start:end])...)
	}
	if rest := tok.Flush(); rest != "" {
		lines = append(lines, rest)
	}
	return lines
}

func TestLineTokenizer_SplitBoundariesProduceSameLines(t *testing.T) {
	whole := feedInChunks(t, []byte(sample), len(sample))
	require.Equal(t, []string{
		`data: {"a":1}`,
		"",
		": keep-alive",
		`data: {"b":"é"}`,
		"",
		"data: [DONE]",
	}, whole)

	for size := 1; size < len(sample); size++ {
		assert.Equal(t, whole, feedInChunks(t, []byte(sample), size), "chunk size %d", size)
	}
}

func TestLineTokenizer_CarriesPartialLine(t *testing.T) {
	tok := &LineTokenizer{}

	assert.Empty(t, tok.Feed([]byte("data: hel")))
	assert.Equal(t, 9, tok.Buffered())
	assert.Equal(t, []string{"data: hello"}, tok.Feed([]byte("lo\ndata: wor")))
	assert.Equal(t, "data: wor", tok.Flush())
	assert.Equal(t, 0, tok.Buffered())
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		line    string
		kind    LineKind
		payload string
	}{
		{`data: {"x":1}`, LineData, `{"x":1}`},
		{`data:{"x":1}`, LineData, `{"x":1}`},
		{"data: [DONE]", LineDone, ""},
		{"", LineIgnored, ""},
		{": ping", LineIgnored, ""},
		{"event: message", LineIgnored, ""},
		{"data: ", LineIgnored, ""},
	}

	for _, tc := range cases {
		kind, payload := ParseLine(tc.line)
		assert.Equal(t, tc.kind, kind, tc.line)
		assert.Equal(t, tc.payload, payload, tc.line)
	}
}
