package dbhelper

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ray-remotestate/kitchen/database"
	"github.com/ray-remotestate/kitchen/models"
)

func setupMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return database.NewFromConn(conn), mock
}

func ticketColumns() []string {
	return []string{"id", "order_id", "store_id", "status", "priority", "created_at", "updated_at"}
}

func lineColumns() []string {
	return []string{"id", "ticket_id", "order_line_id", "product_id", "quantity", "status", "started_at", "completed_at", "updated_at"}
}

func TestCreateTicket_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	orderID := uuid.New()
	storeID := uuid.New()
	now := time.Now()

	input := models.NewTicket{
		OrderID:  orderID,
		StoreID:  storeID,
		Priority: 3,
		Lines: []models.NewLine{
			{OrderLineID: uuid.New(), ProductID: uuid.New(), Quantity: 2},
			{OrderLineID: uuid.New(), ProductID: uuid.New(), Quantity: 1},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tickets`)).
		WithArgs(orderID, storeID, models.TicketPending, 3).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, orderID, storeID, "pending", 3, now, now))
	for _, line := range input.Lines {
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ticket_lines`)).
			WithArgs(ticketID, line.OrderLineID, line.ProductID, line.Quantity, models.LinePending).
			WillReturnRows(sqlmock.NewRows(lineColumns()).
				AddRow(uuid.New(), ticketID, line.OrderLineID, line.ProductID, line.Quantity, "pending", nil, nil, now))
	}
	mock.ExpectCommit()

	ticket, err := store.CreateTicket(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, ticketID, ticket.ID)
	assert.Equal(t, models.TicketPending, ticket.Status)
	assert.Len(t, ticket.Lines, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicket_RollsBackOnLineFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	orderID := uuid.New()
	storeID := uuid.New()
	now := time.Now()
	line := models.NewLine{OrderLineID: uuid.New(), ProductID: uuid.New(), Quantity: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tickets`)).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, orderID, storeID, "pending", 0, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO ticket_lines`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.CreateTicket(context.Background(), models.NewTicket{
		OrderID: orderID,
		StoreID: storeID,
		Lines:   []models.NewLine{line},
	})
	require.Error(t, err)

	var pe *models.PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.NoError(t, mock.ExpectationsWereMet(), "ticket insert must be rolled back, not committed")
}

func TestCreateTicket_EmptyLineListAllowed(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	orderID := uuid.New()
	storeID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tickets`)).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, orderID, storeID, "pending", 0, now, now))
	mock.ExpectCommit()

	ticket, err := store.CreateTicket(context.Background(), models.NewTicket{OrderID: orderID, StoreID: storeID})
	require.NoError(t, err)
	assert.Equal(t, models.TicketPending, ticket.Status, "zero-line ticket stays pending")
	assert.Empty(t, ticket.Lines)
}

func TestCreateTicket_ValidationAggregatesFaults(t *testing.T) {
	db, _ := setupMockDB(t)
	store := NewTicketStore(db)

	_, err := store.CreateTicket(context.Background(), models.NewTicket{
		Lines: []models.NewLine{{Quantity: 0}},
	})
	require.Error(t, err)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "order_id")
	assert.Contains(t, err.Error(), "quantity")
}

func TestUpdateTicketStatus_OnlyCancelledDirectly(t *testing.T) {
	db, _ := setupMockDB(t)
	store := NewTicketStore(db)

	for _, target := range []models.TicketStatus{models.TicketPending, models.TicketInProgress, models.TicketCompleted} {
		_, err := store.UpdateTicketStatus(context.Background(), uuid.New(), target)
		var ve *models.ValidationError
		assert.ErrorAs(t, err, &ve, "direct transition to %s must be rejected", target)
	}

	_, err := store.UpdateTicketStatus(context.Background(), uuid.New(), models.TicketStatus("done"))
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCancelTicket_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tickets`)).
		WithArgs(ticketID, models.TicketCancelled).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, uuid.New(), uuid.New(), "cancelled", 0, now, now))

	ticket, err := store.CancelTicket(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketCancelled, ticket.Status)
}

func TestCancelTicket_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tickets`)).
		WithArgs(ticketID, models.TicketCancelled).
		WillReturnRows(sqlmock.NewRows(ticketColumns()))

	_, err := store.CancelTicket(context.Background(), ticketID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// expectLineLookup wires the fixed preamble of UpdateLineStatus: resolve the
// parent, lock the ticket row, re-read the line under the lock.
func expectLineLookup(mock sqlmock.Sqlmock, lineID, ticketID uuid.UUID, ticketStatus models.TicketStatus, lineStatus models.LineStatus) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ticket_id FROM ticket_lines WHERE id = $1`)).
		WithArgs(lineID).
		WillReturnRows(sqlmock.NewRows([]string{"ticket_id"}).AddRow(ticketID))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM tickets WHERE id = $1 FOR UPDATE`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(ticketStatus)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM ticket_lines WHERE id = $1`)).
		WithArgs(lineID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(lineStatus)))
}

func TestUpdateLineStatus_LastLinePromotesTicket(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	lineID := uuid.New()
	ticketID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	expectLineLookup(mock, lineID, ticketID, models.TicketPending, models.LineInProgress)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE ticket_lines`)).
		WithArgs(lineID, models.LineCompleted).
		WillReturnRows(sqlmock.NewRows(lineColumns()).
			AddRow(lineID, ticketID, uuid.New(), uuid.New(), 1, "completed", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM ticket_lines WHERE ticket_id = $1`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).
			AddRow("completed").AddRow("cancelled"))
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tickets`)).
		WithArgs(ticketID, models.TicketCompleted).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, uuid.New(), uuid.New(), "completed", 0, now, now))
	mock.ExpectCommit()

	line, promoted, err := store.UpdateLineStatus(context.Background(), lineID, models.LineCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.LineCompleted, line.Status)
	assert.NotNil(t, line.CompletedAt)
	require.NotNil(t, promoted, "completing the last line must report the promoted ticket")
	assert.Equal(t, ticketID, promoted.ID)
	assert.Equal(t, models.TicketCompleted, promoted.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLineStatus_NoPromotionWhileLinesUnresolved(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	lineID := uuid.New()
	ticketID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	expectLineLookup(mock, lineID, ticketID, models.TicketPending, models.LineInProgress)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE ticket_lines`)).
		WithArgs(lineID, models.LineCompleted).
		WillReturnRows(sqlmock.NewRows(lineColumns()).
			AddRow(lineID, ticketID, uuid.New(), uuid.New(), 1, "completed", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM ticket_lines WHERE ticket_id = $1`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).
			AddRow("completed").AddRow("in_progress"))
	// no ticket update: one line is still being prepared
	mock.ExpectCommit()

	_, promoted, err := store.UpdateLineStatus(context.Background(), lineID, models.LineCompleted)
	require.NoError(t, err)
	assert.Nil(t, promoted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLineStatus_SkipsRollupForCancelledTicket(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	lineID := uuid.New()
	ticketID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	expectLineLookup(mock, lineID, ticketID, models.TicketCancelled, models.LinePending)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE ticket_lines`)).
		WithArgs(lineID, models.LineCancelled).
		WillReturnRows(sqlmock.NewRows(lineColumns()).
			AddRow(lineID, ticketID, uuid.New(), uuid.New(), 1, "cancelled", nil, nil, now))
	mock.ExpectCommit()

	line, promoted, err := store.UpdateLineStatus(context.Background(), lineID, models.LineCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.LineCancelled, line.Status)
	assert.Nil(t, promoted, "a cancelled ticket is never resurrected by rollup")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLineStatus_InvalidTransition(t *testing.T) {
	tests := []struct {
		name    string
		current models.LineStatus
		target  models.LineStatus
	}{
		{name: "completedBackToInProgress", current: models.LineCompleted, target: models.LineInProgress},
		{name: "cancelledToCompleted", current: models.LineCancelled, target: models.LineCompleted},
		{name: "pendingStraightToCompleted", current: models.LinePending, target: models.LineCompleted},
		{name: "completedToCancelled", current: models.LineCompleted, target: models.LineCancelled},
		{name: "inProgressBackToPending", current: models.LineInProgress, target: models.LinePending},
		{name: "cancelledBackToPending", current: models.LineCancelled, target: models.LinePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			store := NewTicketStore(db)

			lineID := uuid.New()
			ticketID := uuid.New()

			mock.ExpectBegin()
			expectLineLookup(mock, lineID, ticketID, models.TicketPending, tt.current)
			mock.ExpectRollback()

			_, _, err := store.UpdateLineStatus(context.Background(), lineID, tt.target)
			var it *models.InvalidTransitionError
			require.ErrorAs(t, err, &it)
			assert.Equal(t, tt.current, it.From)
			assert.Equal(t, tt.target, it.To)
			assert.NoError(t, mock.ExpectationsWereMet(), "line must be left unchanged")
		})
	}
}

func TestUpdateLineStatus_LineNotFound(t *testing.T) {
	// pending is a known status that is never a legal target; an unknown line
	// must still report not-found for it, not a validation failure.
	for _, target := range []models.LineStatus{models.LineInProgress, models.LinePending} {
		t.Run(string(target), func(t *testing.T) {
			db, mock := setupMockDB(t)
			store := NewTicketStore(db)

			lineID := uuid.New()
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`SELECT ticket_id FROM ticket_lines WHERE id = $1`)).
				WithArgs(lineID).
				WillReturnRows(sqlmock.NewRows([]string{"ticket_id"}))
			mock.ExpectRollback()

			_, _, err := store.UpdateLineStatus(context.Background(), lineID, target)
			var nf *models.NotFoundError
			assert.ErrorAs(t, err, &nf)
		})
	}
}

func TestUpdateLineStatus_RejectsUnknownTarget(t *testing.T) {
	db, _ := setupMockDB(t)
	store := NewTicketStore(db)

	var ve *models.ValidationError
	_, _, err := store.UpdateLineStatus(context.Background(), uuid.New(), models.LineStatus("ready"))
	assert.ErrorAs(t, err, &ve)
}

func TestGetTicket_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, order_id, store_id, status, priority, created_at, updated_at`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows(ticketColumns()))

	_, err := store.GetTicket(context.Background(), ticketID)
	var nf *models.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestGetTicket_WithLines(t *testing.T) {
	db, mock := setupMockDB(t)
	store := NewTicketStore(db)

	ticketID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tickets`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows(ticketColumns()).
			AddRow(ticketID, uuid.New(), uuid.New(), "pending", 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM ticket_lines`)).
		WithArgs(ticketID).
		WillReturnRows(sqlmock.NewRows(lineColumns()).
			AddRow(uuid.New(), ticketID, uuid.New(), uuid.New(), 1, "pending", nil, nil, now).
			AddRow(uuid.New(), ticketID, uuid.New(), uuid.New(), 2, "in_progress", now, nil, now))

	ticket, err := store.GetTicket(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Len(t, ticket.Lines, 2)
	assert.Nil(t, ticket.Lines[0].StartedAt)
	assert.NotNil(t, ticket.Lines[1].StartedAt)
}
