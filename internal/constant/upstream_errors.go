package constant

// Upstream codes (3xxx): payment gateway and messaging network failures.
const (
	// CodeUpstreamError generic remote failure (bad status, unparsable body)
	CodeUpstreamError = 3000

	// CodeUpstreamTimeout remote call hit its deadline
	CodeUpstreamTimeout = 3001

	// CodeUpstreamNetworkError connection refused, DNS, TLS
	CodeUpstreamNetworkError = 3005
)
