package gelf

import (
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 8192)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(buf[:n], &msg))
	return msg
}

func TestWriter_SlogJSONRecord(t *testing.T) {
	srv := listen(t)
	w, err := New(srv.LocalAddr().String(), "juridoc")
	require.NoError(t, err)
	defer w.Close()

	log := slog.New(slog.NewJSONHandler(w, nil))
	log.Warn("orphaned attachment left on storage", "file", "1-a.pdf", "id", 7, "http.status", 500)

	msg := receive(t, srv)
	assert.Equal(t, "1.1", msg["version"])
	assert.Equal(t, "orphaned attachment left on storage", msg["short_message"])
	assert.Equal(t, float64(4), msg["level"])
	assert.Equal(t, "juridoc", msg["_service"])
	assert.Equal(t, "1-a.pdf", msg["_file"])
	assert.Equal(t, float64(7), msg["_record_id"])
	assert.Equal(t, float64(500), msg["_http.status"])
	assert.NotContains(t, msg, "_id")
}

func TestWriter_PlainLine(t *testing.T) {
	srv := listen(t)
	w, err := New(srv.LocalAddr().String(), "juridoc")
	require.NoError(t, err)
	defer w.Close()

	line := []byte("time=now level=ERROR msg=boom\n")
	n, err := w.Write(line)
	require.NoError(t, err)
	assert.Equal(t, len(line), n)

	msg := receive(t, srv)
	assert.Equal(t, "time=now level=ERROR msg=boom", msg["short_message"])
	assert.Equal(t, float64(3), msg["level"])
}

func TestFieldName(t *testing.T) {
	assert.Equal(t, "a_b.c-d", fieldName("a b.c-d"))
}
