// Package telemetry wires OpenTelemetry tracing and Pyroscope profiling.
// Both are off unless enabled through the standard OTEL_* and PYROSCOPE_*
// environment variables.
package telemetry

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceName identifies this process in traces and profiles
const ServiceName = "busmon"

// Version is set at build time via -ldflags
var Version = "dev"

// Protocol is an OTLP transport protocol
type Protocol string

const (
	ProtocolGRPC         Protocol = "grpc"
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
)

// ExporterConfig holds the parsed OTLP trace exporter settings
type ExporterConfig struct {
	Endpoint    string
	Protocol    Protocol
	Headers     map[string]string
	Timeout     time.Duration
	Insecure    bool
	Compression string
}

// IsTracingEnabled returns true if OTEL tracing is enabled
func IsTracingEnabled() bool {
	return isTrue(getEnv("OTEL_TRACING_ENABLED", "false"))
}

// GetExporterConfig resolves the trace exporter settings, preferring the
// OTEL_EXPORTER_OTLP_TRACES_* variables over the generic ones.
func GetExporterConfig() ExporterConfig {
	protocol := ProtocolHTTPProtobuf
	if strings.EqualFold(getEnvWithFallback("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL", ""), "grpc") {
		protocol = ProtocolGRPC
	}

	endpoint := resolveEndpoint(protocol)

	insecure := strings.HasPrefix(endpoint, "http://")
	if v := getEnvWithFallback("OTEL_EXPORTER_OTLP_TRACES_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE", ""); v != "" {
		insecure = isTrue(v)
	}

	return ExporterConfig{
		Endpoint: endpoint,
		Protocol: protocol,
		Headers: parseHeaders(getEnvWithFallback(
			"OTEL_EXPORTER_OTLP_TRACES_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS", "")),
		Timeout: parseDuration(getEnvWithFallback(
			"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", "OTEL_EXPORTER_OTLP_TIMEOUT", "10s"), 10*time.Second),
		Insecure:    insecure,
		Compression: getEnvWithFallback("OTEL_EXPORTER_OTLP_TRACES_COMPRESSION", "OTEL_EXPORTER_OTLP_COMPRESSION", ""),
	}
}

func resolveEndpoint(protocol Protocol) string {
	if v := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); v != "" {
		return normalizeEndpoint(v, protocol)
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		endpoint := normalizeEndpoint(v, protocol)
		if protocol == ProtocolGRPC {
			return endpoint
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return strings.TrimSuffix(endpoint, "/") + "/v1/traces"
		}
		if !strings.HasSuffix(u.Path, "/v1/traces") {
			u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/traces"
		}
		return u.String()
	}
	if protocol == ProtocolGRPC {
		return "localhost:4317"
	}
	return "http://localhost:4318/v1/traces"
}

func normalizeEndpoint(endpoint string, protocol Protocol) string {
	if protocol == ProtocolGRPC {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		if idx := strings.Index(endpoint, "/"); idx != -1 {
			endpoint = endpoint[:idx]
		}
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

// parseHeaders parses "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(headerStr, ",") {
		pair = strings.TrimSpace(pair)
		if idx := strings.Index(pair, "="); idx > 0 {
			headers[strings.TrimSpace(pair[:idx])] = pair[idx+1:]
		}
	}
	return headers
}

// parseDuration accepts Go durations ("10s") and plain milliseconds ("10000")
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvWithFallback(specific, base, defaultValue string) string {
	if value := os.Getenv(specific); value != "" {
		return value
	}
	return getEnv(base, defaultValue)
}

func isTrue(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
