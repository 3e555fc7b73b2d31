package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strings"
	"syscall"
)

// classifyProbeError maps a transport failure onto the closed negative-code
// set. Typed errors first; the message sniffing at the end catches wrapped
// errors the stdlib does not expose as types.
func classifyProbeError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, context.Canceled):
		return StatusAbort
	case errors.Is(err, syscall.ECONNREFUSED):
		return StatusConnectionRefused
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return StatusDNSError
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return StatusTLSError
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return StatusTLSError
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return StatusTLSError
	}
	var authErr x509.UnknownAuthorityError
	if errors.As(err, &authErr) {
		return StatusTLSError
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unsupported protocol scheme"):
		return StatusUnsupportedProtocol
	case strings.Contains(msg, "certificate"), strings.Contains(msg, "tls"), strings.Contains(msg, "x509"):
		return StatusTLSError
	case strings.Contains(msg, "connection refused"):
		return StatusConnectionRefused
	case strings.Contains(msg, "no such host"):
		return StatusDNSError
	}

	if errors.As(err, &netErr) {
		return StatusNetworkError
	}

	return StatusUnknown
}
