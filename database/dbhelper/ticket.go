package dbhelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/kitchen/database"
	"github.com/ray-remotestate/kitchen/models"
)

// TicketStore owns tickets and their lines. Every multi-row mutation runs in
// one transaction: partial tickets are never visible to readers, and the
// rollup decision always reads line state inside the same transaction as the
// line write that triggered it.
type TicketStore struct {
	db *database.DB
}

func NewTicketStore(db *database.DB) *TicketStore {
	return &TicketStore{db: db}
}

func validateNewTicket(input models.NewTicket) error {
	var errs *multierror.Error
	if input.OrderID == uuid.Nil {
		errs = multierror.Append(errs, errors.New("order_id is required"))
	}
	if input.StoreID == uuid.Nil {
		errs = multierror.Append(errs, errors.New("store_id is required"))
	}
	for i, line := range input.Lines {
		if line.OrderLineID == uuid.Nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: order_line_id is required", i))
		}
		if line.ProductID == uuid.Nil {
			errs = multierror.Append(errs, fmt.Errorf("line %d: product_id is required", i))
		}
		if line.Quantity <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("line %d: quantity must be positive", i))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return &models.ValidationError{Msg: "invalid ticket input", Err: err}
	}
	return nil
}

// CreateTicket persists a ticket and all of its lines, or nothing at all. An
// empty line list is allowed; such a ticket stays pending until cancelled.
func (s *TicketStore) CreateTicket(ctx context.Context, input models.NewTicket) (*models.TicketWithLines, error) {
	if err := validateNewTicket(input); err != nil {
		return nil, err
	}

	var result models.TicketWithLines
	txErr := s.db.Tx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO tickets (order_id, store_id, status, priority)
			VALUES ($1, $2, $3, $4)
			RETURNING id, order_id, store_id, status, priority, created_at, updated_at`,
			input.OrderID, input.StoreID, models.TicketPending, input.Priority).
			Scan(&result.ID, &result.OrderID, &result.StoreID, &result.Status,
				&result.Priority, &result.CreatedAt, &result.UpdatedAt)
		if err != nil {
			logrus.WithError(err).Error("failed to insert ticket")
			return err
		}

		for _, in := range input.Lines {
			var line models.TicketLine
			err := tx.QueryRowContext(ctx, `
				INSERT INTO ticket_lines (ticket_id, order_line_id, product_id, quantity, status)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, ticket_id, order_line_id, product_id, quantity, status, started_at, completed_at, updated_at`,
				result.ID, in.OrderLineID, in.ProductID, in.Quantity, models.LinePending).
				Scan(&line.ID, &line.TicketID, &line.OrderLineID, &line.ProductID,
					&line.Quantity, &line.Status, &line.StartedAt, &line.CompletedAt, &line.UpdatedAt)
			if err != nil {
				logrus.WithError(err).Error("failed to insert ticket line")
				return err
			}
			result.Lines = append(result.Lines, line)
		}
		return nil
	})
	if txErr != nil {
		return nil, &models.PersistenceError{Op: "CreateTicket", Err: txErr}
	}
	return &result, nil
}

// UpdateTicketStatus is the direct ticket-status path. Only the cancelled
// override is accepted here; completion is owned by the rollup.
func (s *TicketStore) UpdateTicketStatus(ctx context.Context, ticketID uuid.UUID, target models.TicketStatus) (*models.Ticket, error) {
	if !target.IsValid() {
		return nil, &models.ValidationError{Msg: fmt.Sprintf("unknown ticket status %q", target)}
	}
	if target != models.TicketCancelled {
		return nil, &models.ValidationError{
			Msg: fmt.Sprintf("ticket status %q cannot be set directly; it is derived from line statuses", target),
		}
	}

	var ticket models.Ticket
	err := s.db.Conn().QueryRowContext(ctx, `
		UPDATE tickets
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, order_id, store_id, status, priority, created_at, updated_at`,
		ticketID, target).
		Scan(&ticket.ID, &ticket.OrderID, &ticket.StoreID, &ticket.Status,
			&ticket.Priority, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "ticket", ID: ticketID.String()}
	} else if err != nil {
		return nil, &models.PersistenceError{Op: "UpdateTicketStatus", Err: err}
	}
	return &ticket, nil
}

func (s *TicketStore) CancelTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	return s.UpdateTicketStatus(ctx, ticketID, models.TicketCancelled)
}

// UpdateLineStatus applies one step of the line state machine and re-evaluates
// the parent ticket's rollup inside the same transaction. The parent ticket
// row is locked first, so two concurrent "last line completed" updates for the
// same ticket serialize and exactly one of them promotes the ticket.
//
// The returned ticket is non-nil only when this call's rollup promoted it,
// so callers can notify displays of the ticket-level change.
func (s *TicketStore) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, target models.LineStatus) (*models.TicketLine, *models.Ticket, error) {
	if !target.IsValid() {
		return nil, nil, &models.ValidationError{Msg: fmt.Sprintf("unknown line status %q", target)}
	}

	var line models.TicketLine
	var promoted *models.Ticket
	txErr := s.db.Tx(ctx, func(tx *sql.Tx) error {
		var ticketID uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT ticket_id FROM ticket_lines WHERE id = $1`, lineID).Scan(&ticketID)
		if err == sql.ErrNoRows {
			return &models.NotFoundError{Entity: "ticket line", ID: lineID.String()}
		} else if err != nil {
			return err
		}

		var ticketStatus models.TicketStatus
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM tickets WHERE id = $1 FOR UPDATE`, ticketID).Scan(&ticketStatus)
		if err != nil {
			return err
		}

		// Line state is stable from here on: every writer takes the ticket
		// lock before touching the ticket's lines.
		var current models.LineStatus
		err = tx.QueryRowContext(ctx,
			`SELECT status FROM ticket_lines WHERE id = $1`, lineID).Scan(&current)
		if err != nil {
			return err
		}

		if !current.CanTransitionTo(target) {
			return &models.InvalidTransitionError{From: current, To: target}
		}

		err = tx.QueryRowContext(ctx, `
			UPDATE ticket_lines
			SET status = $2,
				started_at = CASE WHEN $2 = 'in_progress' THEN now() ELSE started_at END,
				completed_at = CASE WHEN $2 = 'completed' THEN now() ELSE completed_at END,
				updated_at = now()
			WHERE id = $1
			RETURNING id, ticket_id, order_line_id, product_id, quantity, status, started_at, completed_at, updated_at`,
			lineID, target).
			Scan(&line.ID, &line.TicketID, &line.OrderLineID, &line.ProductID,
				&line.Quantity, &line.Status, &line.StartedAt, &line.CompletedAt, &line.UpdatedAt)
		if err != nil {
			return err
		}

		if ticketStatus == models.TicketCompleted || ticketStatus == models.TicketCancelled {
			return nil
		}
		promoted, err = rollupTicket(ctx, tx, ticketID)
		return err
	})
	if txErr != nil {
		var nf *models.NotFoundError
		var it *models.InvalidTransitionError
		if errors.As(txErr, &nf) || errors.As(txErr, &it) {
			return nil, nil, txErr
		}
		return nil, nil, &models.PersistenceError{Op: "UpdateLineStatus", Err: txErr}
	}
	return &line, promoted, nil
}

// rollupTicket reads the full line set for the ticket and promotes the ticket
// when the reducer says every line is resolved, returning the promoted ticket
// or nil when nothing changed. Must run inside the same transaction as the
// triggering line write, with the ticket row locked.
func rollupTicket(ctx context.Context, tx *sql.Tx, ticketID uuid.UUID) (*models.Ticket, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT status FROM ticket_lines WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []models.LineStatus
	for rows.Next() {
		var s models.LineStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	target, ok := models.Rollup(statuses)
	if !ok {
		return nil, nil
	}

	var ticket models.Ticket
	err = tx.QueryRowContext(ctx, `
		UPDATE tickets
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, order_id, store_id, status, priority, created_at, updated_at`,
		ticketID, target).
		Scan(&ticket.ID, &ticket.OrderID, &ticket.StoreID, &ticket.Status,
			&ticket.Priority, &ticket.CreatedAt, &ticket.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *TicketStore) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.TicketWithLines, error) {
	var result models.TicketWithLines
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, order_id, store_id, status, priority, created_at, updated_at
		FROM tickets
		WHERE id = $1`, ticketID).
		Scan(&result.ID, &result.OrderID, &result.StoreID, &result.Status,
			&result.Priority, &result.CreatedAt, &result.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "ticket", ID: ticketID.String()}
	} else if err != nil {
		return nil, &models.PersistenceError{Op: "GetTicket", Err: err}
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, ticket_id, order_line_id, product_id, quantity, status, started_at, completed_at, updated_at
		FROM ticket_lines
		WHERE ticket_id = $1
		ORDER BY id`, ticketID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "GetTicket", Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		var line models.TicketLine
		if err := rows.Scan(&line.ID, &line.TicketID, &line.OrderLineID, &line.ProductID,
			&line.Quantity, &line.Status, &line.StartedAt, &line.CompletedAt, &line.UpdatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "GetTicket", Err: err}
		}
		result.Lines = append(result.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "GetTicket", Err: err}
	}
	return &result, nil
}
