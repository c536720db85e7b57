package worker

// recibo_worker.go
// Processes receipt jobs from QueueRecibos: loads the venta, renders the PDF
// receipt, and mails it to the customer through the SMTP circuit breaker.

import (
	"context"
	"encoding/json"
	"fmt"

	"fiadopos/internal/infra"
	"fiadopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReciboWorker generates and mails PDF receipts for completed sales.
type ReciboWorker struct {
	ventaRepo   repository.VentaRepository
	mailer      *infra.Mailer
	cb          *infra.CircuitBreaker
	storagePath string
}

func NewReciboWorker(ventaRepo repository.VentaRepository, mailer *infra.Mailer, cb *infra.CircuitBreaker, storagePath string) *ReciboWorker {
	return &ReciboWorker{ventaRepo: ventaRepo, mailer: mailer, cb: cb, storagePath: storagePath}
}

func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReciboPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return nil // malformed jobs are dropped, not retried
	}
	if payload.Email == "" {
		log.Warn().Msg("recibo_worker: empty email — skipping")
		return nil
	}
	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("recibo_worker: invalid venta_id")
		return nil
	}

	// The sale may have been reversed between enqueue and processing — in that
	// case there is nothing to send and nothing to retry.
	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		log.Warn().Str("venta_id", payload.VentaID).Msg("recibo_worker: venta no longer exists — skipping")
		return nil
	}

	pdfPath, err := infra.GenerateReciboPDF(venta, w.storagePath)
	if err != nil {
		return fmt.Errorf("recibo_worker: generate PDF: %w", err)
	}

	subject := "Recibo de su compra"
	body := fmt.Sprintf("Adjuntamos el recibo de su compra por $%s.", venta.Total.StringFixed(2))
	err = w.cb.Execute(func() error {
		return w.mailer.SendRecibo(payload.Email, subject, body, pdfPath)
	})
	if err != nil {
		return fmt.Errorf("recibo_worker: send to %s: %w", payload.Email, err)
	}

	log.Info().Str("venta_id", payload.VentaID).Str("to", payload.Email).Msg("recibo_worker: recibo enviado")
	return nil
}
