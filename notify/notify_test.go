package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var brand = Brand{Name: "VolunTrek", From: "noreply@voluntrek.org"}

type recorder struct {
	calls atomic.Int32
	err   error
	last  Message
}

func (r *recorder) Send(ctx context.Context, msg Message) error {
	r.calls.Add(1)
	r.last = msg
	return r.err
}

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name   string
		err    error
		kind   Kind
		code   string
		status int
	}{
		{"nil", nil, "", "", http.StatusOK},
		{"missing fields", &MissingFieldsError{Fields: []string{"email"}}, KindValidation, "EMISSING", http.StatusBadRequest},
		{"invalid status", ErrInvalidStatus, KindValidation, "EINVALID", http.StatusBadRequest},
		{"no credentials", fmt.Errorf("smtp: %w", ErrCredentials), KindAuth, "EAUTH", http.StatusUnauthorized},
		{"smtp 535", fmt.Errorf("smtp: %w", &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"}), KindAuth, "EAUTH", http.StatusUnauthorized},
		{"api 401", &HTTPError{Provider: "sendgrid", StatusCode: http.StatusUnauthorized}, KindAuth, "EAUTH", http.StatusUnauthorized},
		{"refused", fmt.Errorf("smtp: %w", refused), KindConnection, "ECONNREFUSED", http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, KindTimeout, "ETIMEDOUT", http.StatusServiceUnavailable},
		{"breaker open", gobreaker.ErrOpenState, KindConnection, "EBREAKER", http.StatusServiceUnavailable},
		{"other", errors.New("mailbox full"), KindUnknown, "UNKNOWN", http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Classify(tc.err)
			assert.Equal(t, tc.kind, r.Kind)
			assert.Equal(t, tc.code, r.Code)
			assert.Equal(t, tc.status, r.HTTPStatus())
			assert.Equal(t, tc.err == nil, r.OK())
		})
	}
}

func TestRenderStatus(t *testing.T) {
	msg, err := RenderStatus(brand, StatusData{Email: "ngo@example.org", OrganizationName: "Green Earth", Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, "Your NGO Account Has Been Approved", msg.Subject)
	assert.Equal(t, "ngo@example.org", msg.To)
	assert.Contains(t, msg.Text, "Dear Green Earth,")
	assert.Contains(t, msg.HTML, "VolunTrek platform")
	assert.Equal(t, "1", msg.Headers["X-Priority"])
	assert.Equal(t, "VolunTrek Notification System", msg.Headers["X-Mailer"])
	assert.Equal(t, "<mailto:noreply@voluntrek.org?subject=unsubscribe>", msg.Headers["List-Unsubscribe"])

	msg, err = RenderStatus(brand, StatusData{Email: "ngo@example.org", OrganizationName: "Green Earth", Status: "rejected", RejectionReason: "Missing <registration>"})
	require.NoError(t, err)
	assert.Equal(t, "Your NGO Account Application Status", msg.Subject)
	assert.Contains(t, msg.Text, "Reason: Missing <registration>")
	assert.Contains(t, msg.HTML, "Missing &lt;registration&gt;")

	msg, err = RenderStatus(brand, StatusData{Email: "ngo@example.org", OrganizationName: "Green Earth", Status: "rejected"})
	require.NoError(t, err)
	assert.NotContains(t, msg.Text, "Reason:")
}

func TestRenderStatusValidation(t *testing.T) {
	_, err := RenderStatus(brand, StatusData{Email: "a@b.c", OrganizationName: "X", Status: "unknown"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = RenderStatus(brand, StatusData{Status: "approved"})
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"email", "organizationName"}, missing.Fields)
}

func TestRenderEventCreated(t *testing.T) {
	msg, err := RenderEventCreated(brand, EventData{
		Email: "ngo@example.org", OrganizationName: "Green Earth", EventTitle: "Beach Cleanup",
		EventDate: "2025-03-01", EventTime: "09:00", EventLocation: "Mombasa",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Event Created: Beach Cleanup", msg.Subject)
	assert.Contains(t, msg.Text, "Location: Mombasa")

	_, err = RenderEventCreated(brand, EventData{Email: "ngo@example.org"})
	assert.Error(t, err)
}

func TestNotifierInvalidStatusDoesNotSend(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec, brand, time.Second, zap.NewNop().Sugar())

	r := n.StatusChanged(context.Background(), StatusData{Email: "a@b.c", OrganizationName: "X", Status: "unknown"}).Wait()
	assert.Equal(t, KindValidation, r.Kind)
	assert.Equal(t, "Invalid status value", r.Detail)
	assert.Equal(t, http.StatusBadRequest, r.HTTPStatus())
	assert.Zero(t, rec.calls.Load())
}

func TestNotifierSends(t *testing.T) {
	rec := &recorder{}
	n := NewNotifier(rec, brand, time.Second, zap.NewNop().Sugar())

	r := n.EventCreated(context.Background(), EventData{Email: "a@b.c", OrganizationName: "X", EventTitle: "T"}).Wait()
	assert.True(t, r.OK())
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, "New Event Created: T", rec.last.Subject)
}

func TestDispatchTimesOut(t *testing.T) {
	slow := SenderFunc(func(ctx context.Context, msg Message) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	start := time.Now()
	task := Dispatch(context.Background(), slow, Message{To: "a@b.c"}, 20*time.Millisecond)

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not complete")
	}
	r := task.Wait()
	assert.Equal(t, StatusTimeout, r.Status)
	assert.Equal(t, http.StatusServiceUnavailable, r.HTTPStatus())
	assert.Less(t, time.Since(start), time.Second)
}

func TestBreakerOpensOnConnectionFailures(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	rec := &recorder{err: refused}
	b := NewBreaker(rec, BreakerConfig{MaxFailures: 2, Timeout: time.Minute}, zap.NewNop().Sugar())

	for i := 0; i < 2; i++ {
		assert.Error(t, b.Send(context.Background(), Message{}))
	}
	err := b.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), rec.calls.Load())
	assert.Equal(t, KindConnection, Classify(err).Kind)
}

func TestBreakerIgnoresAuthFailures(t *testing.T) {
	rec := &recorder{err: ErrCredentials}
	b := NewBreaker(rec, BreakerConfig{MaxFailures: 1, Timeout: time.Minute}, zap.NewNop().Sugar())

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Send(context.Background(), Message{}), ErrCredentials)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
