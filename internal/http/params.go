package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/scheduler"
)

// HandlerOption customises a handler.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	now func() time.Time
}

// WithClock sets the clock used to default a missing date to today. The
// returned time should already be in the service timezone.
func WithClock(now func() time.Time) HandlerOption {
	return func(o *handlerOptions) { o.now = now }
}

func buildOptions(opts []HandlerOption) handlerOptions {
	o := handlerOptions{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// dateParam parses key as YYYY-MM-DD. Missing values yield the zero time.
func dateParam(query url.Values, key string, vErr *application.ValidationError) time.Time {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return time.Time{}
	}
	date, err := time.Parse(scheduler.DateLayout, raw)
	if err != nil {
		vErr.Add(key, "must use YYYY-MM-DD")
		return time.Time{}
	}
	return date
}

func intParam(query url.Values, key string, vErr *application.ValidationError) int {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		vErr.Add(key, "must be a number")
		return 0
	}
	return n
}

// slotParam reads date, start and end. All three or none must be present.
func slotParam(query url.Values, vErr *application.ValidationError) (*scheduler.TimeSlot, error) {
	date := strings.TrimSpace(query.Get("date"))
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))
	if start == "" && end == "" {
		return nil, nil
	}
	if date == "" || start == "" || end == "" {
		vErr.Add("slot", "start and end must be given together with date")
		return nil, nil
	}
	slot, err := scheduler.NewTimeSlot(date, start, end)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func statusesParam(query url.Values, vErr *application.ValidationError) []scheduler.Status {
	var out []scheduler.Status
	for _, raw := range query["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := scheduler.ParseStatus(part)
			if !ok {
				vErr.Add("status", "unknown status")
				continue
			}
			out = append(out, status)
		}
	}
	return out
}
