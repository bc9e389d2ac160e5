package notify

import (
	"context"
	"sync"
)

type Sent struct {
	To      string
	Subject string
	Body    string
}

// Recorder is a Mailer and SMSSender that keeps what it is asked to send.
// Setting Err makes every send fail.
type Recorder struct {
	mu     sync.Mutex
	Err    error
	Emails []Sent
	Texts  []Sent
}

func (r *Recorder) SendMail(_ context.Context, to, subject, html string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Emails = append(r.Emails, Sent{To: to, Subject: subject, Body: html})
	return nil
}

func (r *Recorder) SendSMS(_ context.Context, to, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Texts = append(r.Texts, Sent{To: to, Body: message})
	return nil
}

func (r *Recorder) SentTexts() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.Texts...)
}

func (r *Recorder) SentEmails() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.Emails...)
}
