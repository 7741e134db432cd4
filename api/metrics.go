package api

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "github.com/GoldenManBel/project-management-app/api"
	requestSpanName     = "api.request"
	requestEventName    = "board.request.completed"
	requestEventDomain  = "board"
	observabilityEvent  = "observability.event"
	attrPrefix          = "board.request."
	severityInfoNumber  = 9
	severityWarnNumber  = 13
	severityErrorNumber = 17
)

// requestMetrics records one API request as a span plus a structured log entry.
type requestMetrics struct {
	logger       *log.Logger
	span         trace.Span
	route        string
	start        time.Time
	authDuration time.Duration
	workDuration time.Duration
	family       string
	commands     int
	duplicates   int
	inline       bool
	errorStage   string
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, route string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("http.route", route)),
	)
	return &requestMetrics{
		logger: logger,
		span:   span,
		route:  route,
		start:  time.Now(),
	}, spanCtx
}

func (m *requestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *requestMetrics) ObserveWork(d time.Duration) {
	if d > 0 {
		m.workDuration = d
	}
}

func (m *requestMetrics) SetFamily(family string) { m.family = family }

func (m *requestMetrics) SetCommands(total, duplicates int) {
	m.commands = total
	m.duplicates = duplicates
}

func (m *requestMetrics) SetInline(inline bool) { m.inline = inline }

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

func (m *requestMetrics) attributes(status int, err error) map[string]any {
	attrs := map[string]any{
		"http.route":              m.route,
		"http.status_code":        status,
		attrPrefix + "total_ms":   durationToMillis(time.Since(m.start)),
		attrPrefix + "commands":   m.commands,
		attrPrefix + "duplicates": m.duplicates,
		attrPrefix + "inline":     m.inline,
	}
	if m.family != "" {
		attrs[attrPrefix+"family"] = m.family
	}
	if m.authDuration > 0 {
		attrs[attrPrefix+"auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.workDuration > 0 {
		attrs[attrPrefix+"work_ms"] = durationToMillis(m.workDuration)
	}
	if m.errorStage != "" {
		attrs[attrPrefix+"error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error.message"] = err.Error()
	}
	return attrs
}

// Log ends the span and writes the observability.event entry.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	attrs := m.attributes(status, err)
	severity, number := severityForStatus(status, err)

	eventAttrs := []attribute.KeyValue{
		attribute.String("event.name", requestEventName),
		attribute.String("event.domain", requestEventDomain),
		attribute.String("severity_text", severity),
		attribute.Int("severity_number", number),
	}
	for k, v := range attrs {
		eventAttrs = append(eventAttrs, toAttribute(k, v))
	}
	m.span.AddEvent(observabilityEvent, trace.WithAttributes(eventAttrs...))
	for k, v := range attrs {
		m.span.SetAttributes(toAttribute(k, v))
	}
	if number >= severityErrorNumber {
		msg := http.StatusText(status)
		if err != nil {
			msg = err.Error()
			m.span.RecordError(err)
		}
		m.span.SetStatus(codes.Error, msg)
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	sc := m.span.SpanContext()
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"attributes":      attrs,
		"severity_text":   severity,
		"severity_number": number,
	}
	if sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if sc.HasSpanID() {
		fields["span_id"] = sc.SpanID().String()
	}
	m.logger.WithFields(fields).Log(levelForSeverity(number), observabilityEvent)
}

func severityForStatus(status int, err error) (string, int) {
	switch {
	case err != nil || status >= http.StatusInternalServerError:
		return "ERROR", severityErrorNumber
	case status >= http.StatusBadRequest:
		return "WARN", severityWarnNumber
	default:
		return "INFO", severityInfoNumber
	}
}

func levelForSeverity(number int) log.Level {
	switch number {
	case severityErrorNumber:
		return log.ErrorLevel
	case severityWarnNumber:
		return log.WarnLevel
	default:
		return log.InfoLevel
	}
}

func toAttribute(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case float64:
		return attribute.Float64(key, val)
	default:
		return attribute.String(key, "")
	}
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
