// Package metadata parses coarse client information (browser, OS, remote IP)
// at the transport edge and stores it in the request context. Invitation
// records capture it for abuse review.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"creditnet/pkg/requestcontext"
)

// Capture parses the User-Agent header and remote address into ClientMeta.
func Capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestcontext.ClientMeta{
			IP: clientIP(r),
		}

		if uaString := r.Header.Get("User-Agent"); uaString != "" {
			ua := useragent.New(uaString)
			browser, version := ua.Browser()
			if browser != "" {
				meta.Browser = browser
				if major := majorVersion(version); major != "" {
					meta.Browser = browser + "/" + major
				}
			}
			meta.OS = ua.OS()
		}

		ctx := requestcontext.WithClientMeta(r.Context(), meta)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// majorVersion keeps only the major browser version to limit cardinality.
func majorVersion(version string) string {
	if version == "" {
		return ""
	}
	parts := strings.Split(version, ".")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	return parts[0]
}

// clientIP prefers X-Forwarded-For (first hop) over the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
