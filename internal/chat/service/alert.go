package service

import (
	"context"
	"time"

	"golang-market-chat/pkg/logger"
	"golang-market-chat/pkg/telegram"
	"golang-market-chat/pkg/utils"

	"golang.org/x/time/rate"
)

// Alerter forwards operator alerts to the notifier, dropping bursts.
type Alerter struct {
	notifier telegram.Notifier
	limiter  *rate.Limiter
	logger   *logger.Logger
	now      func() time.Time
}

// NewAlerter creates an Alerter that sends at most one alert per interval.
func NewAlerter(notifier telegram.Notifier, interval time.Duration, log *logger.Logger) *Alerter {
	return &Alerter{
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   log,
		now:      time.Now,
	}
}

// Alert sends the alert asynchronously. It never blocks the caller.
func (a *Alerter) Alert(ctx context.Context, errType string, err error, data string) {
	if a == nil || a.notifier == nil {
		return
	}
	if !a.limiter.Allow() {
		a.logger.DebugContext(ctx, "Operator alert suppressed", logger.StringField("type", errType))
		return
	}

	msg := telegram.FormatErrorAlertMessage(a.now(), errType, err.Error(), data)
	utils.GoSafe(func() {
		if sendErr := a.notifier.SendMessage(msg); sendErr != nil {
			a.logger.Warn("Failed to send operator alert", logger.StringField("type", errType), logger.ErrorField(sendErr))
		}
	})
}
