package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang-market-chat/internal/chat/dto"
	"golang-market-chat/internal/chat/repository"
	"golang-market-chat/pkg/logger"

	"go.uber.org/zap"
)

// RelayState is the lifecycle position of one relayed completion.
type RelayState int

const (
	RelayIdle RelayState = iota
	RelayOpen
	RelayRelaying
	RelayComplete
	RelayFailed
)

func (s RelayState) String() string {
	switch s {
	case RelayIdle:
		return "IDLE"
	case RelayOpen:
		return "OPEN"
	case RelayRelaying:
		return "RELAYING"
	case RelayComplete:
		return "COMPLETE"
	case RelayFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("RelayState(%d)", int(s))
	}
}

// EventWriter delivers stream events to the caller.
type EventWriter interface {
	WriteEvent(event dto.StreamEvent) error
}

// StreamRelay bridges an upstream completion to the caller's event stream.
type StreamRelay interface {
	// Open connects to the upstream. A failure here happens before any event was written.
	Open(ctx context.Context, messages []dto.ChatMessage) (*RelaySession, error)
}

// RelaySession is one opened completion being relayed.
type RelaySession struct {
	stream repository.TokenStream
	logger *logger.Logger
	state  RelayState
	opened time.Time
}

type streamRelay struct {
	completion repository.CompletionRepository
	logger     *logger.Logger
}

// NewStreamRelay creates a StreamRelay over the given completion upstream.
func NewStreamRelay(completion repository.CompletionRepository, log *logger.Logger) StreamRelay {
	return &streamRelay{completion: completion, logger: log}
}

func (r *streamRelay) Open(ctx context.Context, messages []dto.ChatMessage) (*RelaySession, error) {
	session := &RelaySession{logger: r.logger, state: RelayIdle}

	stream, err := r.completion.Stream(ctx, messages)
	if err != nil {
		session.transition(ctx, RelayFailed, logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	session.stream = stream
	session.opened = time.Now()
	session.transition(ctx, RelayOpen)
	return session, nil
}

// NewRelaySession wraps an already opened stream.
func NewRelaySession(stream repository.TokenStream, log *logger.Logger) *RelaySession {
	return &RelaySession{stream: stream, logger: log, state: RelayOpen, opened: time.Now()}
}

// State returns the current lifecycle state.
func (s *RelaySession) State() RelayState {
	return s.state
}

// Relay writes meta (when non-nil) followed by one content event per upstream
// delta, in upstream order, and returns the accumulated text. If the caller
// stops accepting writes the upstream is still drained so the full answer is
// returned. A non-nil error means the upstream failed mid-stream or finished
// without any text; the returned text must then not be persisted.
func (s *RelaySession) Relay(ctx context.Context, w EventWriter, meta *dto.AnalysisSummary) (string, error) {
	defer s.stream.Close()

	var (
		text       strings.Builder
		clientGone bool
		events     int
	)

	write := func(event dto.StreamEvent) {
		if clientGone {
			return
		}
		if err := w.WriteEvent(event); err != nil {
			clientGone = true
			s.logger.InfoContext(ctx, "Client stopped reading, draining upstream", logger.ErrorField(err))
			return
		}
		events++
	}

	s.transition(ctx, RelayRelaying)
	if meta != nil {
		write(dto.MetadataEvent(meta))
	}

	for {
		delta, err := s.stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) && text.Len() == 0 {
				err = ErrEmptyAnswer
			}
			if errors.Is(err, io.EOF) {
				s.transition(ctx, RelayComplete,
					logger.IntField("events", events),
					logger.IntField("chars", text.Len()),
					logger.Field("client_gone", clientGone),
					logger.Field("duration", time.Since(s.opened)))
				return text.String(), nil
			}
			s.transition(ctx, RelayFailed, logger.ErrorField(err), logger.IntField("events", events))
			return text.String(), fmt.Errorf("%w: %w", ErrUpstreamInterrupted, err)
		}
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		write(dto.ContentEvent(delta))
	}
}

func (s *RelaySession) transition(ctx context.Context, to RelayState, fields ...zap.Field) {
	fields = append([]zap.Field{
		logger.StringField("from", s.state.String()),
		logger.StringField("to", to.String()),
	}, fields...)
	s.state = to
	if to == RelayFailed {
		s.logger.WarnContext(ctx, "Relay state changed", fields...)
		return
	}
	s.logger.DebugContext(ctx, "Relay state changed", fields...)
}
