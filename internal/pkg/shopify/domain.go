package shopify

import "regexp"

var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like a real *.myshopify.com
// domain. Checked before any tenant lookup so malformed input never reaches
// the database or the Admin API.
func ValidShopDomain(shop string) bool {
	return len(shop) <= 255 && shopDomainPattern.MatchString(shop)
}
