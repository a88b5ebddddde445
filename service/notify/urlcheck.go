package notify

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
)

var cgnat = netip.MustParsePrefix("100.64.0.0/10")

// ValidateURL accepts https URLs whose host is not a loopback, private,
// link-local or unspecified address and not a localhost name. Hostnames are
// checked again after resolution by the dialer of NewSafeClient.
func (s *service) ValidateURL(raw string) (*url.URL, error) {
	if err := s.validate.Var(raw, "required,url"); err != nil {
		return nil, model.NewValidationError("webhookUrl", "malformed url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, model.NewValidationError("webhookUrl", "malformed url")
	}
	if u.Scheme != "https" {
		return nil, model.NewValidationError("webhookUrl", "https is required")
	}
	if u.User != nil {
		return nil, model.NewValidationError("webhookUrl", "credentials in url are not allowed")
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return nil, model.NewValidationError("webhookUrl", "missing host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, model.NewValidationError("webhookUrl", "localhost is not allowed")
	}
	if addr, err := netip.ParseAddr(host); err == nil && blockedAddr(addr) {
		return nil, model.NewValidationError("webhookUrl", fmt.Sprintf("address %s is not publicly routable", addr))
	}

	return u, nil
}

func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() ||
		cgnat.Contains(addr)
}

// NewSafeClient returns an HTTP client whose dialer refuses non-public
// addresses, so DNS answers cannot redirect a validated hostname inward
func NewSafeClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil {
				return fmt.Errorf("refusing to dial %s: %w", address, err)
			}
			if blockedAddr(addr) {
				return model.NewValidationError("webhookUrl", fmt.Sprintf("resolved address %s is not publicly routable", addr))
			}
			return nil
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
