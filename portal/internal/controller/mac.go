package controller

import "strings"

var macSeparators = strings.NewReplacer("-", ":", ".", ":")

// NormalizeMAC lower-cases a MAC address and rewrites it to colon-separated octets.
// Dash, dot and colon separated pairs, Cisco dotted groups (aabb.ccdd.eeff) and bare
// 12-digit hex are accepted. Anything else only gets its separators rewritten; the
// address is not validated.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(strings.TrimSpace(mac))
	if hex := ciscoHex(mac); hex != "" {
		mac = hex
	}
	if len(mac) == 12 && isHex(mac) {
		return colonPairs(mac)
	}
	return macSeparators.Replace(mac)
}

// ciscoHex returns the 12 hex digits of a three-group dotted address, or "".
func ciscoHex(mac string) string {
	groups := strings.Split(mac, ".")
	if len(groups) != 3 {
		return ""
	}
	for _, g := range groups {
		if len(g) != 4 || !isHex(g) {
			return ""
		}
	}
	return strings.Join(groups, "")
}

func colonPairs(hex string) string {
	var b strings.Builder
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}
	return b.String()
}

func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
