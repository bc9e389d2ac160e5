package notify

import (
	"context"

	"applicant-api-io/api/internal/worker"
)

type Enqueuer interface {
	Enqueue(job worker.Job) bool
}

// Dispatcher queues messages for background delivery. Callers never see
// delivery failures; the worker logs them.
type Dispatcher struct {
	mailer Mailer
	sms    SMSSender
	queue  Enqueuer
}

func NewDispatcher(mailer Mailer, sms SMSSender, queue Enqueuer) *Dispatcher {
	return &Dispatcher{mailer: mailer, sms: sms, queue: queue}
}

// SMS queues a text message and reports whether it was accepted.
func (d *Dispatcher) SMS(to, message string) bool {
	if to == "" {
		return false
	}
	return d.queue.Enqueue(worker.Job{
		Type: "notify.sms",
		Run: func(ctx context.Context) error {
			return d.sms.SendSMS(ctx, to, message)
		},
	})
}

// Email queues an HTML email and reports whether it was accepted.
func (d *Dispatcher) Email(to, subject, html string) bool {
	if to == "" {
		return false
	}
	return d.queue.Enqueue(worker.Job{
		Type: "notify.email",
		Run: func(ctx context.Context) error {
			return d.mailer.SendMail(ctx, to, subject, html)
		},
	})
}
