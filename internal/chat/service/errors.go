package service

import "errors"

var (
	// ErrMissingMessage is returned when a chat request has no message text.
	ErrMissingMessage = errors.New("message is required")
	// ErrInvalidMode is returned for a mode other than general, market or crypto.
	ErrInvalidMode = errors.New("mode must be one of general, market, crypto")
	// ErrMessageTooLong is returned when the message exceeds the configured length.
	ErrMessageTooLong = errors.New("message is too long")
	// ErrMissingCredential is returned when the completion provider has no API key configured.
	ErrMissingCredential = errors.New("AI service API key is not configured")
	// ErrQuotaExceeded is returned when an anonymous caller has used up the daily quota.
	ErrQuotaExceeded = errors.New("daily limit reached for market and crypto analysis, please sign in to continue")
	// ErrUpstreamUnavailable is returned when the completion stream could not be opened.
	ErrUpstreamUnavailable = errors.New("The AI service is temporarily unavailable. Please try again shortly.")
	// ErrUpstreamInterrupted is returned when the completion stream fails after it was opened.
	ErrUpstreamInterrupted = errors.New("completion stream interrupted")
	// ErrEmptyAnswer is returned when the completion stream ends without any text.
	ErrEmptyAnswer = errors.New("completion stream ended without an answer")
)
