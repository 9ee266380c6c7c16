// Package sse decodes server-sent event streams incrementally.
package sse

import (
	"bytes"
	"strings"
)

// DoneSentinel is the payload OpenAI-compatible upstreams send as their last data line.
const DoneSentinel = "[DONE]"

// LineTokenizer splits an arbitrarily chunked byte stream into complete lines.
// Bytes after the last newline are carried over to the next Feed call.
type LineTokenizer struct {
	carry []byte
}

// Feed appends chunk to the carry-over buffer and returns every complete line,
// without its terminator. A trailing "\r" is stripped so CRLF streams decode the same.
func (t *LineTokenizer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	t.carry = append(t.carry, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(t.carry, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(string(t.carry[:idx]), "\r"))
		t.carry = t.carry[idx+1:]
	}

	// reclaim the consumed prefix
	if len(t.carry) == 0 {
		t.carry = nil
	} else if cap(t.carry) > 4*len(t.carry) {
		t.carry = append([]byte(nil), t.carry...)
	}
	return lines
}

// Flush returns whatever partial line is still buffered and resets the tokenizer.
func (t *LineTokenizer) Flush() string {
	rest := strings.TrimSuffix(string(t.carry), "\r")
	t.carry = nil
	return rest
}

// Buffered reports the number of bytes waiting for a newline.
func (t *LineTokenizer) Buffered() int {
	return len(t.carry)
}

// LineKind classifies a decoded line.
type LineKind int

const (
	LineIgnored LineKind = iota
	LineData
	LineDone
)

// ParseLine classifies one line of an event stream. For data lines the payload
// after "data:" is returned with one optional leading space removed.
// Blank lines, comments and non-data fields are ignored.
func ParseLine(line string) (LineKind, string) {
	if line == "" || strings.HasPrefix(line, ":") {
		return LineIgnored, ""
	}
	if !strings.HasPrefix(line, "data:") {
		return LineIgnored, ""
	}
	payload := strings.TrimPrefix(line, "data:")
	payload = strings.TrimPrefix(payload, " ")
	if strings.TrimSpace(payload) == DoneSentinel {
		return LineDone, ""
	}
	if strings.TrimSpace(payload) == "" {
		return LineIgnored, ""
	}
	return LineData, payload
}
