package worker

// email_worker.go
// Processes email jobs from QueueEmail: welcome messages, licence changes and
// issued diplomas (certificate PDF rendered in memory and attached).

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"evot/internal/infra"
	"evot/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const emailMaxAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	Para      string `json:"para"`
	Asunto    string `json:"asunto"`
	Cuerpo    string `json:"cuerpo"`
	DiplomaID string `json:"diploma_id,omitempty"`
}

// Sender delivers one message. *infra.Mailer implements it.
type Sender interface {
	Send(msg infra.Mensaje) error
}

// DiplomaLoader loads a diploma with its graduate and institution.
type DiplomaLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Diploma, error)
}

// EmailWorker sends notification emails through a circuit breaker, retrying
// transient failures before giving up.
type EmailWorker struct {
	sender   Sender
	diplomas DiplomaLoader
	cb       *infra.CircuitBreaker
}

func NewEmailWorker(sender Sender, diplomas DiplomaLoader, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{sender: sender, diplomas: diplomas, cb: cb}
}

func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: payload inválido: %w", err)
	}
	if payload.Para == "" {
		log.Warn().Msg("email_worker: destinatario vacío, se omite")
		return nil
	}

	msg := infra.Mensaje{Para: payload.Para, Asunto: payload.Asunto, Texto: payload.Cuerpo}
	if payload.DiplomaID != "" {
		adj, err := w.certificado(ctx, payload.DiplomaID)
		if err != nil {
			return err
		}
		msg.Adjuntos = append(msg.Adjuntos, adj)
	}

	err := withRetry(ctx, emailMaxAttempts, func(attempt int) error {
		err := w.cb.Execute(func() error { return w.sender.Send(msg) })
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.Para).Msg("email_worker: envío fallido")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("email_worker: %w", err)
	}
	log.Info().Str("to", payload.Para).Str("asunto", payload.Asunto).Msg("email_worker: enviado")
	return nil
}

func (w *EmailWorker) certificado(ctx context.Context, rawID string) (infra.Adjunto, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return infra.Adjunto{}, fmt.Errorf("email_worker: diploma_id inválido: %w", err)
	}
	if w.diplomas == nil {
		return infra.Adjunto{}, errors.New("email_worker: sin repositorio de diplomas")
	}
	d, err := w.diplomas.FindByID(ctx, id)
	if err != nil {
		return infra.Adjunto{}, fmt.Errorf("email_worker: cargar diploma: %w", err)
	}
	pdf, err := infra.GenerarDiplomaPDF(infra.CertificadoDeDiploma(d))
	if err != nil {
		return infra.Adjunto{}, err
	}
	return infra.Adjunto{
		Nombre:      "diploma_" + d.CodigoDiploma + ".pdf",
		ContentType: "application/pdf",
		Contenido:   pdf,
	}, nil
}
