package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueAlertasStock = "jobs:alertas_stock"
	QueueRecibos      = "jobs:recibos"

	// maxAttempts before a failing job is parked in the DLQ.
	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// AlertaStockPayload notifies that a product fell below the low-stock threshold.
type AlertaStockPayload struct {
	Producto    string `json:"producto"`
	StockActual int    `json:"stock_actual"`
}

// ReciboPayload asks for a PDF receipt to be generated and mailed.
type ReciboPayload struct {
	VentaID string `json:"venta_id"`
	Email   string `json:"email"`
}

// Dispatcher enqueues async jobs into Redis lists; the worker pool dequeues
// them via BRPOP. It satisfies the venta service's Notificador collaborator:
// enqueueing is the whole side effect, delivery happens out of band.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// AlertaStockBajo pushes a low-stock alert job to Redis.
func (d *Dispatcher) AlertaStockBajo(ctx context.Context, producto string, stockActual int) error {
	return d.enqueue(ctx, QueueAlertasStock, "alerta_stock", AlertaStockPayload{
		Producto:    producto,
		StockActual: stockActual,
	})
}

// EnviarRecibo pushes a receipt email job to Redis.
func (d *Dispatcher) EnviarRecibo(ctx context.Context, ventaID uuid.UUID, email string) error {
	return d.enqueue(ctx, QueueRecibos, "recibo", ReciboPayload{
		VentaID: ventaID.String(),
		Email:   email,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one job payload. A non-nil error triggers a retry; after
// maxAttempts the job is parked in the DLQ for manual inspection.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers maps each queue to its handler. Wired at the composition root.
type WorkerHandlers struct {
	AlertaStock Handler
	Recibo      Handler
}

func (h *WorkerHandlers) byQueue(queue string) Handler {
	switch queue {
	case QueueAlertasStock:
		return h.AlertaStock
	case QueueRecibos:
		return h.Recibo
	default:
		return nil
	}
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueAlertasStock, QueueRecibos}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	handler := handlers.byQueue(queue)
	if handler == nil {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}

	if err := handler.Process(ctx, job.Payload); err != nil {
		job.Attempts++
		if job.Attempts >= maxAttempts {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
			return
		}
		log.Warn().
			Str("queue", queue).
			Str("type", job.Type).
			Int("attempts", job.Attempts).
			Err(err).
			Msg("job failed — re-enqueueing")
		if encoded, mErr := json.Marshal(job); mErr == nil {
			_ = rdb.LPush(ctx, queue, encoded).Err()
		}
	}
}
