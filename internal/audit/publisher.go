package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"cadastro/pkg/requestcontext"
)

// Sink receives every published event.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Publisher enriches events with request metadata and forwards them to its
// sinks. It is append-only; a failing sink does not stop the others.
type Publisher struct {
	sinks []Sink
	now   func(ctx context.Context) time.Time
}

// NewPublisher stamps events with the request start time when the request
// context carries one.
func NewPublisher(sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, now: requestcontext.Now}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now(ctx).UTC()
	}
	if event.Category == "" {
		event.Category = event.Type.Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.Device == "" {
		event.Device = DeviceName(requestcontext.UserAgent(ctx))
	}

	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeviceName renders a User-Agent as "Browser on OS". Empty input stays empty.
func DeviceName(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()
	if ua.Mobile() && ua.Platform() != "" {
		os = ua.Platform()
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
