package checker

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyProbeError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "context deadline",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: context.DeadlineExceeded},
			want: StatusTimeout,
		},
		{
			name: "context canceled",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: context.Canceled},
			want: StatusAbort,
		},
		{
			name: "dns failure",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "x"}}},
			want: StatusDNSError,
		},
		{
			name: "connection refused",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}},
			want: StatusConnectionRefused,
		},
		{
			name: "tls record header",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}},
			want: StatusTLSError,
		},
		{
			name: "tls alert by message",
			err:  errors.New("remote error: tls: handshake failure"),
			want: StatusTLSError,
		},
		{
			name: "certificate by message",
			err:  errors.New("x509: certificate signed by unknown authority"),
			want: StatusTLSError,
		},
		{
			name: "unsupported protocol",
			err:  &url.Error{Op: "Get", URL: "ftp://x", Err: errors.New(`unsupported protocol scheme "ftp"`)},
			want: StatusUnsupportedProtocol,
		},
		{
			name: "net timeout",
			err:  &url.Error{Op: "Get", URL: "https://x", Err: timeoutErr{}},
			want: StatusTimeout,
		},
		{
			name: "generic net error",
			err:  &net.OpError{Op: "read", Err: errors.New("connection reset by peer")},
			want: StatusNetworkError,
		},
		{
			name: "anything else",
			err:  errors.New("some other failure"),
			want: StatusUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, classifyProbeError(tc.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	transient := []int{
		StatusUnknown, StatusTimeout, StatusDNSError, StatusConnectionRefused,
		StatusTLSError, StatusNetworkError, StatusAbort,
	}
	for _, code := range transient {
		require.True(t, IsTransient(code), "code %d", code)
	}

	permanent := []int{
		StatusTooManyRedirects, StatusInvalidRedirectLoc, StatusUnsupportedProtocol,
		200, 301, 404, 500,
	}
	for _, code := range permanent {
		require.False(t, IsTransient(code), "code %d", code)
	}
}
