package models

import (
	"time"

	"github.com/google/uuid"
)

type Queue struct {
	ID        uuid.UUID `db:"id" json:"id"`
	StoreID   uuid.UUID `db:"store_id" json:"store_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type QueueAssignment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	QueueID   uuid.UUID `db:"queue_id" json:"queue_id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
