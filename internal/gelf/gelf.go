package gelf

import (
	"encoding/json"
	"net"
	"os"
	"strings"
	"time"
)

// Writer sends GELF messages over UDP and implements io.Writer so it can
// sit behind a slog handler via io.MultiWriter.
type Writer struct {
	conn     net.Conn
	hostname string
	service  string
}

// New creates a GELF UDP writer connected to addr (e.g. "172.17.0.1:12201").
func New(addr, service string) (*Writer, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = service
	}

	return &Writer{conn: conn, hostname: hostname, service: service}, nil
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

// Write implements io.Writer. Each call carries one log record and sends
// one GELF message. JSON records (slog JSONHandler) are mapped field by
// field; anything else is sent as a plain short_message.
func (w *Writer) Write(p []byte) (int, error) {
	payload, err := json.Marshal(w.message(p))
	if err != nil {
		return len(p), nil // don't fail the log call
	}

	// Fire-and-forget
	_, _ = w.conn.Write(payload)
	return len(p), nil
}

func (w *Writer) message(p []byte) map[string]any {
	line := strings.TrimRight(string(p), "\n")
	msg := map[string]any{
		"version":  "1.1",
		"host":     w.hostname,
		"_service": w.service,
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		msg["short_message"] = line
		msg["timestamp"] = float64(time.Now().UnixNano()) / 1e9
		msg["level"] = levelFromText(line)
		return msg
	}

	short, _ := record["msg"].(string)
	if short == "" {
		short = line
	}
	msg["short_message"] = short
	msg["timestamp"] = timestamp(record["time"])
	lvl, _ := record["level"].(string)
	msg["level"] = syslogLevel(lvl)

	for k, v := range record {
		switch k {
		case "msg", "time", "level":
			continue
		case "id":
			k = "record_id" // _id is reserved by GELF
		}
		msg["_"+fieldName(k)] = v
	}
	return msg
}

func timestamp(v any) float64 {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return float64(t.UnixNano()) / 1e9
		}
	}
	return float64(time.Now().UnixNano()) / 1e9
}

// syslogLevel maps slog level names to syslog severities.
func syslogLevel(l string) int {
	switch {
	case strings.HasPrefix(l, "ERROR"):
		return 3
	case strings.HasPrefix(l, "WARN"):
		return 4
	case strings.HasPrefix(l, "DEBUG"):
		return 7
	default:
		return 6
	}
}

func levelFromText(line string) int {
	switch {
	case strings.Contains(line, "level=ERROR"), strings.Contains(line, "PANIC:"):
		return 3
	case strings.Contains(line, "level=WARN"):
		return 4
	case strings.Contains(line, "level=DEBUG"):
		return 7
	default:
		return 6
	}
}

// fieldName keeps additional field names within GELF's [\w.-] alphabet.
func fieldName(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, k)
}
