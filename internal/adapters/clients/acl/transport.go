package acl

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// transportRule is one entry of the transport failure table. Rules are
// tried in order and the first match builds the result.
type transportRule struct {
	name  string
	match func(err error, msg string) bool
	build func(err error, msg string) *domain.NetworkError
}

var (
	timeoutSecondsRe = regexp.MustCompile(`after (\d+(?:\.\d+)?) second`)
	refusedHostRe    = regexp.MustCompile(`Connection refused to ([^\s:]+)(?::(\d+))?`)
	unresolvedHostRe = regexp.MustCompile(`Could not resolve host:?\s*([^\s;,]+)`)
)

const (
	defaultRefusedPort = 80
	unknownHost        = "unknown"
)

// transportRules checks typed Go errors first, then falls back to the
// message heuristics. Message matching is case-sensitive and best effort:
// connector wording is outside this SDK's control.
var transportRules = []transportRule{
	{name: "timeout", match: isTimeout, build: buildTimeout},
	{name: "connection_refused", match: isConnRefused, build: buildConnRefused},
	{name: "dns", match: isDNS, build: buildDNS},
	{name: "tls", match: isTLS, build: buildTLS},
	{name: "timeout_text", match: containsText("Connection timed out"), build: buildTimeout},
	{name: "connection_refused_text", match: containsText("Connection refused"), build: buildRefusedText},
	{name: "dns_text", match: containsText("Could not resolve host"), build: buildDNSText},
	{name: "tls_text", match: func(_ error, msg string) bool {
		return strings.Contains(msg, "SSL") || strings.Contains(msg, "TLS")
	}, build: buildTLS},
}

// ClassifyTransportFailure maps a failure that produced no HTTP response to
// a network error. Unrecognised failures become the generic flavor with
// err kept as the previous error.
func ClassifyTransportFailure(err error) *domain.NetworkError {
	if err == nil {
		return domain.NewGenericNetworkError("unknown transport failure", nil)
	}

	msg := err.Error()

	for _, rule := range transportRules {
		if rule.match(err, msg) {
			return rule.build(err, msg)
		}
	}

	return domain.NewGenericNetworkError(msg, err)
}

func containsText(needle string) func(error, string) bool {
	return func(_ error, msg string) bool {
		return strings.Contains(msg, needle)
	}
}

func isTimeout(err error, _ string) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}

func buildTimeout(err error, msg string) *domain.NetworkError {
	var seconds float64

	if m := timeoutSecondsRe.FindStringSubmatch(msg); m != nil {
		seconds, _ = strconv.ParseFloat(m[1], 64)
	}

	return domain.NewTimeoutError(seconds, err)
}

func isConnRefused(err error, _ string) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func buildConnRefused(err error, msg string) *domain.NetworkError {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Addr != nil {
		if host, port, splitErr := net.SplitHostPort(opErr.Addr.String()); splitErr == nil {
			p, convErr := strconv.Atoi(port)
			if convErr != nil {
				p = defaultRefusedPort
			}

			return domain.NewConnectionRefusedError(host, p, err)
		}
	}

	return buildRefusedText(err, msg)
}

func buildRefusedText(err error, msg string) *domain.NetworkError {
	host, port := unknownHost, defaultRefusedPort

	if m := refusedHostRe.FindStringSubmatch(msg); m != nil {
		host = m[1]

		if m[2] != "" {
			if p, convErr := strconv.Atoi(m[2]); convErr == nil {
				port = p
			}
		}
	}

	return domain.NewConnectionRefusedError(host, port, err)
}

func isDNS(err error, _ string) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func buildDNS(err error, msg string) *domain.NetworkError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.Name != "" {
		return domain.NewDNSError(dnsErr.Name, err)
	}

	return buildDNSText(err, msg)
}

func buildDNSText(err error, msg string) *domain.NetworkError {
	hostname := unknownHost

	if m := unresolvedHostRe.FindStringSubmatch(msg); m != nil {
		hostname = m[1]
	}

	return domain.NewDNSError(hostname, err)
}

func isTLS(err error, _ string) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
		authorityErr x509.UnknownAuthorityError
		hostnameErr  x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)

	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}

func buildTLS(err error, msg string) *domain.NetworkError {
	return domain.NewTLSError(msg, err)
}
