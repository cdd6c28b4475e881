package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastreseller/orderbot/internal/catalog"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeRecordLog struct {
	records []Record
	err     error
}

func (f *fakeRecordLog) Append(rec Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestMachine(t *testing.T) (*Machine, Store, *fakeMailer, *fakeRecordLog) {
	t.Helper()
	mailer := &fakeMailer{}
	records := &fakeRecordLog{}
	store := NewMemoryStore()
	fin := NewFinalizer(mailer, records, "seller@example.com")
	return NewMachine(catalog.Default(), store, fin), store, mailer, records
}

func runHappyFlowUntilConfirmation(t *testing.T, m *Machine, userID int64) {
	t.Helper()
	ctx := context.Background()
	m.Begin(ctx, userID, "mario")
	m.SelectProduct(ctx, userID, "cuffie")
	m.Input(ctx, userID, "3")
	m.Input(ctx, userID, "Via Roma 1")
}

func TestBeginPromptsWithCatalogChoices(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	reply := m.Begin(context.Background(), 10, "mario")

	assert.Equal(t, msgWelcome, reply.Text)
	require.Len(t, reply.Choices, 3)
	assert.Equal(t, "cuffie", reply.Choices[0].Key)
	assert.Equal(t, "Cuffie Wireless Modello X", reply.Choices[0].Label)

	d, ok := store.Get(10)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingProduct, d.State)
}

func TestBeginOverwritesActiveDraft(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	m.SelectProduct(ctx, 10, "cuffie")
	m.Input(ctx, 10, "3")

	// restart mid-flow: prior draft silently discarded
	m.Begin(ctx, 10, "mario")
	d, ok := store.Get(10)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingProduct, d.State)
	assert.Empty(t, d.ProductKey)
	assert.Zero(t, d.Quantity)
}

func TestSelectProductUnknownKeyKeepsState(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")

	for _, key := range []string{"droni", "", "CUFFIE💥", "cuffie "} {
		reply := m.SelectProduct(ctx, 10, key)
		assert.Equal(t, msgUnknownProduct, reply.Text, "key %q", key)
		assert.Len(t, reply.Choices, 3)

		d, ok := store.Get(10)
		require.True(t, ok)
		assert.Equal(t, StateAwaitingProduct, d.State)
		assert.Empty(t, d.ProductKey)
		assert.Zero(t, d.UnitPrice)
	}
}

func TestSelectProductWithoutSession(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	reply := m.SelectProduct(context.Background(), 99, "cuffie")
	assert.Equal(t, msgNoActiveOrder, reply.Text)
	assert.Equal(t, 0, store.Len())
}

func TestSelectProductSnapshotsPrice(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	reply := m.SelectProduct(ctx, 10, "cuffie")

	assert.Equal(t, fmt.Sprintf(msgChosen, "Cuffie Wireless Modello X"), reply.Text)
	d, ok := store.Get(10)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingQuantity, d.State)
	assert.Equal(t, "cuffie", d.ProductKey)
	assert.Equal(t, 45, d.UnitPrice)
}

func TestTypedProductKeyAccepted(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	reply := m.Input(ctx, 10, " Maglia ")

	assert.Equal(t, fmt.Sprintf(msgChosen, "Maglia Calcio Retrò"), reply.Text)
	d, _ := store.Get(10)
	assert.Equal(t, StateAwaitingQuantity, d.State)
}

func TestInvalidQuantityDoesNotMutate(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	m.SelectProduct(ctx, 10, "cuffie")

	for _, input := range []string{"zero", "", "0", "-3", "2.5", "tre"} {
		reply := m.Input(ctx, 10, input)
		assert.Equal(t, msgInvalidQuantity, reply.Text, "input %q", input)

		d, ok := store.Get(10)
		require.True(t, ok)
		assert.Equal(t, StateAwaitingQuantity, d.State)
		assert.Zero(t, d.Quantity)
	}

	// a valid quantity still goes through after any number of rejects
	reply := m.Input(ctx, 10, "3")
	assert.Equal(t, msgAskDetails, reply.Text)
	d, _ := store.Get(10)
	assert.Equal(t, 3, d.Quantity)
	assert.Equal(t, StateAwaitingDetails, d.State)
}

func TestDetailsAcceptedVerbatimAndSummaryShowsTotal(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	m.SelectProduct(ctx, 10, "cuffie")
	m.Input(ctx, 10, "3")

	details := "  Via Roma 1, citofono B.  "
	reply := m.Input(ctx, 10, details)
	assert.Equal(t, fmt.Sprintf(msgSummary, "Cuffie Wireless Modello X", 3, details, 135), reply.Text)

	d, _ := store.Get(10)
	assert.Equal(t, details, d.Details, "details stored verbatim")
	assert.Equal(t, StateAwaitingConfirmation, d.State)
}

func TestConfirmationRoundTrip(t *testing.T) {
	m, store, mailer, records := newTestMachine(t)
	runHappyFlowUntilConfirmation(t, m, 10)

	reply := m.Input(context.Background(), 10, "si")
	assert.Equal(t, msgConfirmed, reply.Text)

	require.Len(t, mailer.sent, 1)
	mail := mailer.sent[0]
	assert.Equal(t, "seller@example.com", mail.to)
	assert.Equal(t, mailSubject, mail.subject)
	assert.Contains(t, mail.body, "Cuffie Wireless Modello X")
	assert.Contains(t, mail.body, "Quantità: 3")
	assert.Contains(t, mail.body, "Totale: 135 €")
	assert.Contains(t, mail.body, "Via Roma 1")

	require.Len(t, records.records, 1)
	rec := records.records[0]
	assert.Equal(t, 3, rec.Quantity)
	assert.Equal(t, 135, rec.Total)
	assert.Equal(t, int64(10), rec.UserID)
	assert.NotEmpty(t, rec.Ref)

	_, ok := store.Get(10)
	assert.False(t, ok, "draft removed on completion")
}

func TestConfirmationCaseInsensitive(t *testing.T) {
	for _, answer := range []string{"SI", "Si", "si", " si "} {
		m, store, mailer, _ := newTestMachine(t)
		runHappyFlowUntilConfirmation(t, m, 10)

		reply := m.Input(context.Background(), 10, answer)
		assert.Equal(t, msgConfirmed, reply.Text, "answer %q", answer)
		assert.Len(t, mailer.sent, 1)
		_, ok := store.Get(10)
		assert.False(t, ok)
	}
}

func TestConfirmationAmbiguousKeepsState(t *testing.T) {
	m, store, mailer, records := newTestMachine(t)
	runHappyFlowUntilConfirmation(t, m, 10)
	ctx := context.Background()

	for _, answer := range []string{"maybe", "sì!", "yes", "nope"} {
		reply := m.Input(ctx, 10, answer)
		assert.Equal(t, msgAnswerYesNo, reply.Text, "answer %q", answer)

		d, ok := store.Get(10)
		require.True(t, ok)
		assert.Equal(t, StateAwaitingConfirmation, d.State)
	}
	assert.Empty(t, mailer.sent)
	assert.Empty(t, records.records)
}

func TestConfirmationNo(t *testing.T) {
	m, store, mailer, records := newTestMachine(t)
	runHappyFlowUntilConfirmation(t, m, 10)

	reply := m.Input(context.Background(), 10, "no")
	assert.Equal(t, msgCancelled, reply.Text)
	assert.Empty(t, mailer.sent)
	assert.Empty(t, records.records)
	_, ok := store.Get(10)
	assert.False(t, ok)
}

func TestDeliveryFailureDropsDraftWithoutRecord(t *testing.T) {
	m, store, mailer, records := newTestMachine(t)
	mailer.err = errors.New("smtp: connection refused")
	runHappyFlowUntilConfirmation(t, m, 10)

	reply := m.Input(context.Background(), 10, "si")
	assert.Equal(t, msgDeliveryFailed, reply.Text)
	assert.NotEqual(t, msgConfirmed, reply.Text)
	assert.Empty(t, records.records, "failed orders are never recorded")
	_, ok := store.Get(10)
	assert.False(t, ok, "draft removed even on failure")
}

func TestInputWithoutSession(t *testing.T) {
	m, _, mailer, _ := newTestMachine(t)
	reply := m.Input(context.Background(), 99, "si")
	assert.Equal(t, msgNoActiveOrder, reply.Text)
	assert.Empty(t, mailer.sent)
}

func TestUsersAreIsolated(t *testing.T) {
	m, store, mailer, records := newTestMachine(t)
	ctx := context.Background()

	m.Begin(ctx, 1, "mario")
	m.Begin(ctx, 2, "luigi")
	m.SelectProduct(ctx, 1, "cuffie")
	m.SelectProduct(ctx, 2, "sneakers")
	m.Input(ctx, 1, "3")
	m.Input(ctx, 2, "2")
	m.Input(ctx, 1, "Via Roma 1")
	m.Input(ctx, 2, "Via Milano 2")

	d1, _ := store.Get(1)
	d2, _ := store.Get(2)
	assert.Equal(t, "cuffie", d1.ProductKey)
	assert.Equal(t, "sneakers", d2.ProductKey)
	assert.Equal(t, 3, d1.Quantity)
	assert.Equal(t, 2, d2.Quantity)

	// user 2 cancels, user 1 confirms
	m.Input(ctx, 2, "no")
	m.Input(ctx, 1, "si")

	require.Len(t, mailer.sent, 1)
	assert.True(t, strings.Contains(mailer.sent[0].body, "Cuffie"))
	require.Len(t, records.records, 1)
	assert.Equal(t, int64(1), records.records[0].UserID)
	assert.Equal(t, 0, store.Len())
}

func TestLateProductPickReprompts(t *testing.T) {
	m, store, _, _ := newTestMachine(t)
	ctx := context.Background()
	m.Begin(ctx, 10, "mario")
	m.SelectProduct(ctx, 10, "cuffie")

	// stale keyboard tap while awaiting quantity
	reply := m.SelectProduct(ctx, 10, "sneakers")
	assert.Equal(t, fmt.Sprintf(msgChosen, "Cuffie Wireless Modello X"), reply.Text)

	d, _ := store.Get(10)
	assert.Equal(t, "cuffie", d.ProductKey, "late pick must not overwrite the snapshot")
	assert.Equal(t, StateAwaitingQuantity, d.State)
}
