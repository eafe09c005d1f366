// Package routing partitions ticket lines across preparation queues. It is a
// pure projection over configuration data; it never touches storage.
package routing

import (
	"github.com/google/uuid"

	"github.com/ray-remotestate/kitchen/models"
)

// Unassigned is the bucket key for lines whose product has no queue
// assignment. Such lines are surfaced here rather than dropped, so no line
// ever vanishes from every station view.
var Unassigned = uuid.Nil

// Partition maps each line to the queue(s) its product is assigned to. A
// product assigned to several queues puts its line in each of them.
func Partition(lines []models.TicketLine, assignments []models.QueueAssignment) map[uuid.UUID][]models.TicketLine {
	queuesByProduct := make(map[uuid.UUID][]uuid.UUID)
	for _, a := range assignments {
		queuesByProduct[a.ProductID] = append(queuesByProduct[a.ProductID], a.QueueID)
	}

	buckets := make(map[uuid.UUID][]models.TicketLine)
	for _, line := range lines {
		queues := queuesByProduct[line.ProductID]
		if len(queues) == 0 {
			buckets[Unassigned] = append(buckets[Unassigned], line)
			continue
		}
		for _, qid := range queues {
			buckets[qid] = append(buckets[qid], line)
		}
	}
	return buckets
}

// FilterByQueue keeps only the lines routed to the given queue.
func FilterByQueue(lines []models.TicketLine, assignments []models.QueueAssignment, queueID uuid.UUID) []models.TicketLine {
	return Partition(lines, assignments)[queueID]
}
