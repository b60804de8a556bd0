package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

const maxURLLength = 2048

type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// Peers in these ranges may set X-Forwarded-For and X-Real-IP.
var trustedProxies = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
}

func trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// extractClientIP returns the caller address. Forwarding headers are read
// only when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !trusted(peer) {
		return host
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		if addr, err := netip.ParseAddr(strings.TrimSpace(candidate)); err == nil {
			return addr.String()
		}
	}
	return host
}

var (
	probeMarkers = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner"}
)

// detectSuspiciousRequest returns why r looks like a probe, or "" when it
// does not. Flagged requests are counted and logged but still served.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) string {
	reason := probeReason(r)
	if reason != "" && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}
	return reason
}

func probeReason(r *http.Request) string {
	switch r.Method {
	case "TRACE", "TRACK", "DEBUG", "CONNECT":
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}
	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, m := range probeMarkers {
		if strings.Contains(target, m) {
			return "path"
		}
	}
	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "user_agent"
		}
	}
	return ""
}

func setSecurityHeaders(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Cross-Origin-Resource-Policy", "cross-origin")
	if r.TLS != nil {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}

// setCORSHeaders opens the read-only API to browser clients on any origin.
func setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
	h.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
}
