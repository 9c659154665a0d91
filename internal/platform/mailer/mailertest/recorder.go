// Package mailertest records outgoing account emails for tests.
package mailertest

import (
	"context"
	"sync"
)

type Sent struct {
	Kind      string
	To        string
	FirstName string
	Link      string
}

const (
	KindVerification = "verification"
	KindReset        = "reset"
)

// Recorder captures every send. When Err is set, sends fail with it and
// nothing is recorded.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Sent
}

func (r *Recorder) SendEmailVerification(_ context.Context, to, firstName, link string) error {
	return r.record(Sent{Kind: KindVerification, To: to, FirstName: firstName, Link: link})
}

func (r *Recorder) SendPasswordReset(_ context.Context, to, firstName, link string) error {
	return r.record(Sent{Kind: KindReset, To: to, FirstName: firstName, Link: link})
}

func (r *Recorder) record(s Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, s)
	return nil
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Last returns the most recent send, or false when nothing was sent.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}, false
	}
	return r.sent[len(r.sent)-1], true
}
