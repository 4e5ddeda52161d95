package categorizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Payment rails prepend these to the merchant name on Indian statements.
var railPrefixes = []string{
	"upi-", "upi/", "upi ", "pos ", "pos/", "ecom ", "ecom/", "nfs ",
	"paytm*", "paytm ", "razorpay*", "rzp*", "payu*", "ccavenue*", "bbps ", "www.",
}

// Tokens that say nothing about what the merchant sells.
var stopwords = map[string]struct{}{
	"pvt": {}, "ltd": {}, "private": {}, "limited": {}, "llp": {}, "inc": {},
	"india": {}, "the": {}, "and": {}, "co": {}, "com": {}, "in": {}, "www": {},
	"payment": {}, "payments": {}, "online": {}, "services": {}, "store": {},
	"upi": {}, "pos": {}, "ref": {}, "txn": {},
}

// MerchantKey returns the knowledge-store key for a raw merchant name: NFKC
// normalized, case folded, trimmed, with internal whitespace collapsed.
func MerchantKey(raw string) string {
	folded := cases.Fold().String(norm.NFKC.String(raw))
	return strings.Join(strings.Fields(folded), " ")
}

// Keywords derives lookup keywords from a merchant name. Rail prefixes,
// reference numbers and stopwords are dropped; order of first appearance is
// kept.
func Keywords(raw string) []string {
	s := stripRailPrefix(MerchantKey(raw))

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 || isReference(tok) {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

func stripRailPrefix(s string) string {
	for changed := true; changed; {
		changed = false
		for _, p := range railPrefixes {
			if strings.HasPrefix(s, p) {
				s = strings.TrimSpace(strings.TrimPrefix(s, p))
				changed = true
			}
		}
	}
	return s
}

// isReference reports whether tok looks like a transaction or terminal
// reference: four or more digits making up most of the token.
func isReference(tok string) bool {
	digits, total := 0, 0
	for _, r := range tok {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 4 && digits*2 >= total
}
