package allowlist

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/sms-sentinel/internal/utils"
)

// Checker provides functionality to check if link domains are trusted
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	// Normalize domains (lowercase)
	normalizedDomains := make([]string, len(domains))
	for i, domain := range domains {
		normalizedDomains[i] = strings.ToLower(strings.TrimSpace(domain))
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized trusted-domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// IsTrusted checks if the link's domain is in the allowlist. A subdomain
// of a trusted domain counts as trusted.
func (c *Checker) IsTrusted(url string) bool {
	if len(c.domains) == 0 {
		return false
	}

	domain := utils.URLDomain(url)
	if domain == "" {
		return false
	}

	for _, trusted := range c.domains {
		if domain == trusted || strings.HasSuffix(domain, "."+trusted) {
			if c.logger != nil {
				c.logger.Debug("Domain is trusted",
					zap.String("domain", domain),
					zap.String("url", url))
			}
			return true
		}
	}

	return false
}

// Match returns the trusted domains found among the given URLs.
func (c *Checker) Match(urls []string) []string {
	var matched []string
	for _, url := range urls {
		if c.IsTrusted(url) {
			matched = append(matched, utils.URLDomain(url))
		}
	}
	return matched
}
