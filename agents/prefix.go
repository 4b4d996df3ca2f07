package agents

import (
	"regexp"
	"strings"

	"playgate/models"
)

// GSC usernames are <routing_prefix><site_prefix><last 6 phone digits>. The
// "short code" form is the site prefix plus digits, used by legacy accounts
// created before routing prefixes existed.
var shortCodeRe = regexp.MustCompile(`^[a-z]{2,4}\d{6}$`)

var nonDigitRe = regexp.MustCompile(`\D`)

// applyGSCPrefix normalizes a candidate username to the canonical external
// form for the GSC agent. Idempotent: an already-canonical value is returned
// unchanged.
func applyGSCPrefix(cfg models.AgentConfig, candidate string) string {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	full := cfg.RoutingPrefix + cfg.SitePrefix

	if shortCodeRe.MatchString(candidate) {
		return candidate
	}
	if full != "" && strings.HasPrefix(candidate, full) {
		return candidate
	}

	digits := nonDigitRe.ReplaceAllString(candidate, "")
	if len(digits) > 6 {
		digits = digits[len(digits)-6:]
	}
	if digits == "" {
		return full + candidate
	}
	return full + digits
}

// gscUsernameCandidates is the ordered list of usernames GSC registration
// tries. Pure so the ordering rules stay unit-testable without HTTP.
func gscUsernameCandidates(cfg models.AgentConfig, phone string) []string {
	full := cfg.RoutingPrefix + cfg.SitePrefix
	digits := nonDigitRe.ReplaceAllString(phone, "")
	last6 := digits
	if len(digits) > 6 {
		last6 = digits[len(digits)-6:]
	}

	candidates := []string{full + last6}
	if digits != last6 {
		candidates = append(candidates, full+digits)
	}
	if cfg.SitePrefix != "" && cfg.SitePrefix != full {
		candidates = append(candidates, cfg.SitePrefix+last6)
	}
	return candidates
}
