package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"eventsales/internal/dto"
	"eventsales/internal/rabbit"
)

// receiptSender is what the worker needs from the mailer.
type receiptSender interface {
	SendReceipt(to, studentName string, eventTitles []string, total float64, payment string) error
}

// Reader drains the receipt queue and mails students. A transient mail
// failure nacks+requeues so a flaky relay does not drop receipts; a
// message that fails again after redelivery is dropped, not requeued
// forever.
type Reader struct {
	RMQ    *rabbit.Client
	mail   receiptSender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, mail receiptSender) *Reader {
	return &Reader{
		RMQ:  rmq,
		mail: mail,
		done: make(chan struct{}),
	}
}

// handle processes one delivery. A nil return acks the message; an
// error nacks it back onto the queue for one more attempt.
func (r *Reader) handle(body []byte, redelivered bool) error {
	var msg dto.ReceiptMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// Poison message; acking it is the only way forward.
		zlog.Logger.Error().Err(err).Msgf("failed to unmarshal receipt message: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Str("student_email", msg.StudentEmail).
		Int("events", len(msg.EventTitles)).
		Msg("receipt message received")

	if err := r.mail.SendReceipt(
		msg.StudentEmail,
		msg.StudentName,
		msg.EventTitles,
		msg.Total,
		msg.Payment,
	); err != nil {
		if redelivered {
			zlog.Logger.Error().Err(err).
				Str("student_email", msg.StudentEmail).
				Msg("dropping receipt after failed redelivery")
			return nil
		}
		return err
	}
	return nil
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("receipt worker started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(r.handle); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("receipt worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
