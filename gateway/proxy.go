package gateway

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewUpstreamProxy builds the reverse proxy that fronts the project
// service. upstreamURL must be a valid HTTP(S) URL, e.g.
// "http://projectsvc:8080".
func NewUpstreamProxy(upstreamURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("gateway proxy: invalid upstream %q: %w", upstreamURL, err)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("gateway proxy: upstream %q has no host", upstreamURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Gateway upstream error for %s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Service temporarily unavailable", http.StatusBadGateway)
	}

	return proxy, nil
}
