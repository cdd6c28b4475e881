package orderlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastreseller/orderbot/internal/order"
)

func sampleRecord() order.Record {
	return order.Record{
		Time:     time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC),
		UserID:   7,
		Username: "mario",
		Product:  "Cuffie Wireless Modello X",
		Quantity: 2,
		Details:  "Via Roma 1",
		Total:    90,
		Ref:      "ref-1",
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleRecord())
	assert.Equal(t,
		"2026-08-31T10:00:00Z - mario (7) - Cuffie Wireless Modello X x2 - Via Roma 1 - 90 € - ref-1",
		line,
	)

	rec := sampleRecord()
	rec.Username = ""
	assert.Contains(t, FormatLine(rec), "unknown (7)")
}

func TestAppendIsAppendOnlyAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.log")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Append(sampleRecord()))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	rec := sampleRecord()
	rec.Ref = "ref-2"
	require.NoError(t, l.Append(rec))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "reopening must never truncate")
	assert.Contains(t, lines[0], "ref-1")
	assert.Contains(t, lines[1], "ref-2")
}

func TestAppendAfterCloseFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.log")
	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	err = l.Append(sampleRecord())
	require.Error(t, err)
	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)

	assert.NoError(t, l.Close(), "double close is a no-op")
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "orders.log"))
	require.Error(t, err)
	var ioErr *IOError
	assert.ErrorAs(t, err, &ioErr)
}
