package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDraft() *Draft {
	return &Draft{
		UserID:      7,
		Username:    "mario",
		ProductKey:  "cuffie",
		ProductName: "Cuffie Wireless Modello X",
		UnitPrice:   45,
		Quantity:    2,
		Details:     "Via Roma 1",
		State:       StateAwaitingConfirmation,
	}
}

func TestFinalizeSendsThenRecords(t *testing.T) {
	mailer := &fakeMailer{}
	records := &fakeRecordLog{}
	fin := NewFinalizer(mailer, records, "seller@example.com")
	fixed := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	fin.now = func() time.Time { return fixed }
	fin.newRef = func() string { return "ref-1" }

	ref, err := fin.Finalize(context.Background(), testDraft())
	require.NoError(t, err)
	assert.Equal(t, "ref-1", ref)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].body, "Riferimento: ref-1")
	assert.Contains(t, mailer.sent[0].body, "Totale: 90 €")

	require.Len(t, records.records, 1)
	rec := records.records[0]
	assert.Equal(t, fixed, rec.Time)
	assert.Equal(t, "ref-1", rec.Ref)
	assert.Equal(t, 90, rec.Total)
}

func TestFinalizeDeliveryErrorSkipsRecord(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp: boom")}
	records := &fakeRecordLog{}
	fin := NewFinalizer(mailer, records, "seller@example.com")

	_, err := fin.Finalize(context.Background(), testDraft())
	require.Error(t, err)
	assert.ErrorIs(t, err, mailer.err)
	assert.Empty(t, records.records)
}

func TestFinalizeRecordErrorIsSwallowed(t *testing.T) {
	mailer := &fakeMailer{}
	records := &fakeRecordLog{err: errors.New("disk full")}
	fin := NewFinalizer(mailer, records, "seller@example.com")

	ref, err := fin.Finalize(context.Background(), testDraft())
	require.NoError(t, err, "a recorded-order miss must not fail an already notified order")
	assert.NotEmpty(t, ref)
	require.Len(t, mailer.sent, 1)
}

func TestFinalizeTwiceSendsTwice(t *testing.T) {
	mailer := &fakeMailer{}
	records := &fakeRecordLog{}
	fin := NewFinalizer(mailer, records, "seller@example.com")
	d := testDraft()

	_, err := fin.Finalize(context.Background(), d)
	require.NoError(t, err)
	_, err = fin.Finalize(context.Background(), d)
	require.NoError(t, err)

	assert.Len(t, mailer.sent, 2, "no cross-call deduplication")
	assert.Len(t, records.records, 2)
}
