package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LokiLogger logs through otelzap so entries carry the active trace. With a
// Loki URL the *WithTrace entries are also pushed to Loki.
type LokiLogger struct {
	Logger      *otelzap.Logger
	serviceName string
	loki        *lokiPusher
}

type lokiPush struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// lokiPusher posts single-line streams to /loki/api/v1/push. Delivery is
// best effort.
type lokiPusher struct {
	url    string
	client *http.Client
}

func NewLokiLogger(serviceName, lokiURL string) (*LokiLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return NewLokiLoggerFromZap(zapLogger, serviceName, lokiURL), nil
}

// NewLokiLoggerFromZap wraps an existing zap logger. An empty lokiURL keeps
// everything local.
func NewLokiLoggerFromZap(zapLogger *zap.Logger, serviceName, lokiURL string) *LokiLogger {
	l := &LokiLogger{Logger: otelzap.New(zapLogger), serviceName: serviceName}

	if lokiURL != "" {
		l.loki = &lokiPusher{
			url:    strings.TrimSuffix(lokiURL, "/") + "/loki/api/v1/push",
			client: &http.Client{Timeout: 5 * time.Second},
		}
	}

	return l
}

func (l *LokiLogger) ServiceName() string { return l.serviceName }

// Zap returns the plain logger for components that do not need trace context.
func (l *LokiLogger) Zap() *zap.Logger { return l.Logger.Logger }

func (l *LokiLogger) Sync() error { return l.Logger.Sync() }

func (l *LokiLogger) InfoWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.emit(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *LokiLogger) WarnWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.emit(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *LokiLogger) ErrorWithTrace(ctx context.Context, msg string, fields ...zap.Field) {
	l.emit(ctx, zapcore.ErrorLevel, msg, fields)
}

func (l *LokiLogger) emit(ctx context.Context, level zapcore.Level, msg string, fields []zap.Field) {
	fields = append(fields, zap.String("service", l.serviceName))

	log := l.Logger.Ctx(ctx)
	switch level {
	case zapcore.ErrorLevel:
		log.Error(msg, fields...)
	case zapcore.WarnLevel:
		log.Warn(msg, fields...)
	default:
		log.Info(msg, fields...)
	}

	if l.loki == nil {
		return
	}

	line := encodeLine(trace.SpanContextFromContext(ctx), level, msg, fields)
	labels := map[string]string{"service": l.serviceName, "level": level.String()}

	// ctx belongs to the request and may be cancelled before the push runs.
	go l.loki.push(labels, line)
}

// encodeLine renders the entry as the JSON object stored in the Loki line.
func encodeLine(sc trace.SpanContext, level zapcore.Level, msg string, fields []zap.Field) []byte {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	enc.Fields["timestamp"] = time.Now().Format(time.RFC3339Nano)
	enc.Fields["level"] = level.String()
	enc.Fields["message"] = msg

	if sc.IsValid() {
		enc.Fields["trace_id"] = sc.TraceID().String()
		enc.Fields["span_id"] = sc.SpanID().String()
	}

	line, _ := json.Marshal(enc.Fields)
	return line
}

func (p *lokiPusher) push(labels map[string]string, line []byte) {
	body, err := json.Marshal(lokiPush{Streams: []lokiStream{{
		Stream: labels,
		Values: [][2]string{{strconv.FormatInt(time.Now().UnixNano(), 10), string(line)}},
	}}})
	if err != nil {
		return
	}

	resp, err := p.client.Post(p.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
}
