package dbhelper

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ray-remotestate/kitchen/database"
	"github.com/ray-remotestate/kitchen/models"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// QueueStore manages preparation stations and their product assignments.
// Uniqueness of (queue_id, product_id) is enforced by the schema constraint,
// not by check-then-insert.
type QueueStore struct {
	db *database.DB
}

func NewQueueStore(db *database.DB) *QueueStore {
	return &QueueStore{db: db}
}

func (s *QueueStore) CreateQueue(ctx context.Context, storeID uuid.UUID, name string) (*models.Queue, error) {
	if storeID == uuid.Nil {
		return nil, &models.ValidationError{Msg: "store_id is required"}
	}
	if strings.TrimSpace(name) == "" {
		return nil, &models.ValidationError{Msg: "queue name is required"}
	}

	var queue models.Queue
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO queues (store_id, name)
		VALUES ($1, $2)
		RETURNING id, store_id, name, created_at`,
		storeID, strings.TrimSpace(name)).
		Scan(&queue.ID, &queue.StoreID, &queue.Name, &queue.CreatedAt)
	if err != nil {
		return nil, &models.PersistenceError{Op: "CreateQueue", Err: err}
	}
	return &queue, nil
}

// DeleteQueue removes the queue together with its assignments; orphan
// assignment rows would poison the router's partition input.
func (s *QueueStore) DeleteQueue(ctx context.Context, queueID uuid.UUID) error {
	txErr := s.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM queue_assignments WHERE queue_id = $1`, queueID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM queues WHERE id = $1`, queueID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &models.NotFoundError{Entity: "queue", ID: queueID.String()}
		}
		return nil
	})
	if txErr != nil {
		if _, ok := txErr.(*models.NotFoundError); ok {
			return txErr
		}
		return &models.PersistenceError{Op: "DeleteQueue", Err: txErr}
	}
	return nil
}

func (s *QueueStore) GetQueue(ctx context.Context, queueID uuid.UUID) (*models.Queue, error) {
	var queue models.Queue
	err := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, store_id, name, created_at
		FROM queues
		WHERE id = $1`, queueID).
		Scan(&queue.ID, &queue.StoreID, &queue.Name, &queue.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "queue", ID: queueID.String()}
	} else if err != nil {
		return nil, &models.PersistenceError{Op: "GetQueue", Err: err}
	}
	return &queue, nil
}

func (s *QueueStore) ListQueues(ctx context.Context, storeID uuid.UUID) ([]models.Queue, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, store_id, name, created_at
		FROM queues
		WHERE store_id = $1
		ORDER BY name`, storeID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "ListQueues", Err: err}
	}
	defer rows.Close()

	var queues []models.Queue
	for rows.Next() {
		var q models.Queue
		if err := rows.Scan(&q.ID, &q.StoreID, &q.Name, &q.CreatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "ListQueues", Err: err}
		}
		queues = append(queues, q)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "ListQueues", Err: err}
	}
	return queues, nil
}

// AssignProduct links a product to a queue. An existing (queue, product) pair
// is rejected, not upserted.
func (s *QueueStore) AssignProduct(ctx context.Context, queueID, productID uuid.UUID) (*models.QueueAssignment, error) {
	if queueID == uuid.Nil || productID == uuid.Nil {
		return nil, &models.ValidationError{Msg: "queue_id and product_id are required"}
	}

	var assignment models.QueueAssignment
	err := s.db.Conn().QueryRowContext(ctx, `
		INSERT INTO queue_assignments (queue_id, product_id)
		VALUES ($1, $2)
		RETURNING id, queue_id, product_id, created_at`,
		queueID, productID).
		Scan(&assignment.ID, &assignment.QueueID, &assignment.ProductID, &assignment.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch string(pqErr.Code) {
			case pqUniqueViolation:
				return nil, &models.DuplicateAssignmentError{
					QueueID:   queueID.String(),
					ProductID: productID.String(),
				}
			case pqForeignKeyViolation:
				return nil, &models.NotFoundError{Entity: "queue", ID: queueID.String()}
			}
		}
		return nil, &models.PersistenceError{Op: "AssignProduct", Err: err}
	}
	return &assignment, nil
}

func (s *QueueStore) RemoveAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	res, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM queue_assignments WHERE id = $1`, assignmentID)
	if err != nil {
		return &models.PersistenceError{Op: "RemoveAssignment", Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &models.PersistenceError{Op: "RemoveAssignment", Err: err}
	}
	if affected == 0 {
		return &models.NotFoundError{Entity: "queue assignment", ID: assignmentID.String()}
	}
	return nil
}

func (s *QueueStore) ListAssignments(ctx context.Context, queueID uuid.UUID) ([]models.QueueAssignment, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, queue_id, product_id, created_at
		FROM queue_assignments
		WHERE queue_id = $1`, queueID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "ListAssignments", Err: err}
	}
	defer rows.Close()

	var assignments []models.QueueAssignment
	for rows.Next() {
		var a models.QueueAssignment
		if err := rows.Scan(&a.ID, &a.QueueID, &a.ProductID, &a.CreatedAt); err != nil {
			return nil, &models.PersistenceError{Op: "ListAssignments", Err: err}
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "ListAssignments", Err: err}
	}
	return assignments, nil
}
