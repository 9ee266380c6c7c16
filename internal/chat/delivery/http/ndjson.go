package http

import (
	"encoding/json"

	"golang-market-chat/internal/chat/dto"

	"github.com/labstack/echo/v4"
)

// ndjsonWriter writes one JSON object per line and flushes after each event.
type ndjsonWriter struct {
	c   echo.Context
	enc *json.Encoder
}

func newNDJSONWriter(c echo.Context) *ndjsonWriter {
	enc := json.NewEncoder(c.Response())
	enc.SetEscapeHTML(false)
	return &ndjsonWriter{c: c, enc: enc}
}

func (w *ndjsonWriter) WriteEvent(event dto.StreamEvent) error {
	if err := w.c.Request().Context().Err(); err != nil {
		return err
	}
	if err := w.enc.Encode(event); err != nil {
		return err
	}
	w.c.Response().Flush()
	return nil
}
