package worker

// alerta_worker.go
// Processes low-stock alert jobs from QueueAlertasStock.
// Sends the alert email through the SMTP circuit breaker so a downed relay
// fast-fails into the retry/DLQ path instead of stalling the pool.

import (
	"context"
	"encoding/json"
	"fmt"

	"fiadopos/internal/infra"

	"github.com/rs/zerolog/log"
)

// AlertaStockWorker mails low-stock alerts to the configured address.
type AlertaStockWorker struct {
	mailer       *infra.Mailer
	cb           *infra.CircuitBreaker
	destinatario string
}

func NewAlertaStockWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, destinatario string) *AlertaStockWorker {
	return &AlertaStockWorker{mailer: mailer, cb: cb, destinatario: destinatario}
}

func (w *AlertaStockWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload AlertaStockPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return nil // malformed jobs are dropped, not retried
	}
	if w.destinatario == "" {
		log.Debug().Msg("alerta_worker: no destination configured — skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendAlertaStock(w.destinatario, payload.Producto, payload.StockActual)
	})
	if err != nil {
		return fmt.Errorf("alerta_worker: send %q: %w", payload.Producto, err)
	}

	log.Info().
		Str("producto", payload.Producto).
		Int("stock_actual", payload.StockActual).
		Msg("alerta_worker: alerta de stock bajo enviada")
	return nil
}
