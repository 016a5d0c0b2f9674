package notify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"syscall"

	"github.com/sony/gobreaker"
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusTimeout Status = "timeout"
	StatusFailed  Status = "failed"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindUnknown    Kind = "unknown"
)

// Result is the outcome of one send attempt.
type Result struct {
	Status Status `json:"status"`
	Kind   Kind   `json:"kind,omitempty"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (r Result) OK() bool { return r.Status == StatusSent }

// HTTPStatus maps a failed result to the status the email endpoints answer with.
func (r Result) HTTPStatus() int {
	switch r.Kind {
	case "":
		return http.StatusOK
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConnection, KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

const (
	detailAuth       = "Email authentication failed: check the mail transport credentials."
	detailLogin      = "Invalid login: the mail server rejected the username or password."
	detailConnection = "Connection to email server failed: check the network connection and mail server settings."
	detailTimeout    = "Sending the email timed out."
	detailBreaker    = "Email server is unavailable after repeated connection failures; try again shortly."
)

// Classify turns a transport error into a Result. A nil error is a sent result.
func Classify(err error) Result {
	if err == nil {
		return Result{Status: StatusSent}
	}

	var missing *MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return Result{Status: StatusFailed, Kind: KindValidation, Code: "EMISSING", Detail: "Missing required fields: " + strings.Join(missing.Fields, ", ")}
	case errors.Is(err, ErrInvalidStatus):
		return Result{Status: StatusFailed, Kind: KindValidation, Code: "EINVALID", Detail: "Invalid status value"}
	case errors.Is(err, context.DeadlineExceeded):
		return Result{Status: StatusTimeout, Kind: KindTimeout, Code: "ETIMEDOUT", Detail: detailTimeout}
	case errors.Is(err, context.Canceled):
		return Result{Status: StatusTimeout, Kind: KindTimeout, Code: "ECANCELED", Detail: "Sending the email was cancelled."}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return Result{Status: StatusFailed, Kind: KindConnection, Code: "EBREAKER", Detail: detailBreaker}
	case errors.Is(err, ErrCredentials):
		return Result{Status: StatusFailed, Kind: KindAuth, Code: "EAUTH", Detail: detailAuth}
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return Result{Status: StatusFailed, Kind: KindAuth, Code: "EAUTH", Detail: detailLogin}
		}
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return Result{Status: StatusFailed, Kind: KindAuth, Code: "EAUTH", Detail: detailLogin}
		case httpErr.StatusCode >= 500:
			return Result{Status: StatusFailed, Kind: KindConnection, Code: "ESOCKET", Detail: detailConnection}
		}
	}

	if isConnection(err) {
		code := "ESOCKET"
		if errors.Is(err, syscall.ECONNREFUSED) {
			code = "ECONNREFUSED"
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			code = "ETIMEDOUT"
		}
		return Result{Status: StatusFailed, Kind: KindConnection, Code: code, Detail: detailConnection}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "invalid login") || strings.Contains(lower, "authentication failed") || strings.Contains(lower, "535 ") {
		return Result{Status: StatusFailed, Kind: KindAuth, Code: "EAUTH", Detail: detailLogin}
	}
	return Result{Status: StatusFailed, Kind: KindUnknown, Code: "UNKNOWN", Detail: msg}
}

func isConnection(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsConnectionFailure reports whether err should count against the breaker.
func IsConnectionFailure(err error) bool {
	if err == nil {
		return false
	}
	k := Classify(err).Kind
	return k == KindConnection || k == KindTimeout
}

// HTTPError is returned by API based transports for non-2xx answers.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return e.Provider + " API error: " + http.StatusText(e.StatusCode) + " " + e.Body
}
