package controller

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeMAC(t *testing.T) {
	tests := map[string]string{
		"AA-BB-CC-DD-EE-FF":   "aa:bb:cc:dd:ee:ff",
		"aa.bb.cc.dd.ee.ff":   "aa:bb:cc:dd:ee:ff",
		"Aa:Bb:Cc:Dd:Ee:Ff":   "aa:bb:cc:dd:ee:ff",
		" aa-bb.cc:dd-ee.ff ": "aa:bb:cc:dd:ee:ff",
		"AABB.CCDD.EEFF":      "aa:bb:cc:dd:ee:ff",
		"aabbccddeeff":        "aa:bb:cc:dd:ee:ff",
		"AABBCCDDEEFF ":       "aa:bb:cc:dd:ee:ff",
		"aabb.ccdd":           "aabb:ccdd",
		"zzbbccddeeff":        "zzbbccddeeff",
		"":                    "",
	}
	for in, want := range tests {
		if got := NormalizeMAC(in); got != want {
			t.Fatalf("NormalizeMAC(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoginDecisions(t *testing.T) {
	tests := []struct {
		name string
		raw  RawResponse
		rule string
		ok   bool
	}{
		{name: "json ok", raw: RawResponse{Status: 200, Body: []byte(`{"meta":{"rc":"ok"}}`)}, rule: "json-ok", ok: true},
		{name: "html", raw: RawResponse{Status: 200, Body: []byte(`<html></html>`)}, rule: "html-200", ok: true},
		{name: "empty body", raw: RawResponse{Status: 200}, rule: "html-200", ok: true},
		{name: "json error", raw: RawResponse{Status: 200, Body: []byte(`{"meta":{"rc":"error"}}`)}, rule: "json-not-ok"},
		{name: "json without meta", raw: RawResponse{Status: 200, Body: []byte(`{"token":"x"}`)}, rule: "json-not-ok"},
		{name: "json array", raw: RawResponse{Status: 200, Body: []byte(`[1,2]`)}, rule: "json-not-ok"},
		{name: "302 dashboard", raw: RawResponse{Status: 302, Location: "/manage"}, rule: "redirect-away", ok: true},
		{name: "303 dashboard", raw: RawResponse{Status: 303, Location: "https://c/manage/site/default"}, rule: "redirect-away", ok: true},
		{name: "307 empty location", raw: RawResponse{Status: 307}, rule: "redirect-away", ok: true},
		{name: "302 login", raw: RawResponse{Status: 302, Location: "/login?redirect=%2F"}, rule: "redirect-login"},
		{name: "302 LOGIN upper", raw: RawResponse{Status: 302, Location: "/manage/LOGIN"}, rule: "redirect-login"},
		{name: "301 not a login redirect", raw: RawResponse{Status: 301, Location: "/manage"}, rule: "default"},
		{name: "401", raw: RawResponse{Status: 401, Body: []byte(`{"meta":{"rc":"error"}}`)}, rule: "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := loginDecisions.decide(tt.raw)
			if res.Rule != tt.rule {
				t.Fatalf("expected rule %q, got %q", tt.rule, res.Rule)
			}
			if res.OK() != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, res.OK())
			}
		})
	}
}

func TestAuthorizeDecisions(t *testing.T) {
	tests := []struct {
		name string
		raw  RawResponse
		kind ErrorKind
		ok   bool
	}{
		{name: "json ok", raw: RawResponse{Status: 200, Body: []byte(`{"meta":{"rc":"ok"},"data":[]}`)}, ok: true},
		{name: "non-json", raw: RawResponse{Status: 200, Body: []byte(`OK`)}, ok: true},
		{name: "rejected", raw: RawResponse{Status: 200, Body: []byte(`{"meta":{"rc":"error","msg":"api.err.InvalidMac"}}`)}, kind: KindAuthorizationRejected},
		{name: "401", raw: RawResponse{Status: http.StatusUnauthorized}, kind: KindAuthentication},
		{name: "403", raw: RawResponse{Status: http.StatusForbidden}, kind: KindAuthentication},
		{name: "404", raw: RawResponse{Status: http.StatusNotFound}, kind: KindUnexpectedStatus},
		{name: "redirect", raw: RawResponse{Status: http.StatusFound, Location: "/manage"}, kind: KindUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := authorizeDecisions.decide(tt.raw)
			if res.OK() != tt.ok {
				t.Fatalf("expected ok=%v, got %v (rule %s)", tt.ok, res.OK(), res.Rule)
			}
			if res.Kind != tt.kind {
				t.Fatalf("expected kind %q, got %q", tt.kind, res.Kind)
			}
		})
	}
}

func TestDecisionDetailIsTruncated(t *testing.T) {
	body := make([]byte, 500)
	for i := range body {
		body[i] = 'x'
	}
	res := authorizeDecisions.decide(RawResponse{Status: http.StatusBadGateway, Body: body})
	if len(res.Detail) != maxDetailSize {
		t.Fatalf("expected detail of %d bytes, got %d", maxDetailSize, len(res.Detail))
	}
}

func TestDecisionDetailKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("x", maxDetailSize-1) + "é" + strings.Repeat("y", 50)
	res := authorizeDecisions.decide(RawResponse{Status: http.StatusBadGateway, Body: []byte(body)})
	if !utf8.ValidString(res.Detail) {
		t.Fatalf("detail is not valid UTF-8: %q", res.Detail[len(res.Detail)-4:])
	}
	if len(res.Detail) != maxDetailSize-1 {
		t.Fatalf("expected detail of %d bytes, got %d", maxDetailSize-1, len(res.Detail))
	}
}

func TestQueryDecisionsRejectMalformedBody(t *testing.T) {
	res := queryDecisions.decide(RawResponse{Status: 200, Body: []byte(`<html>`)})
	if res.OK() || res.Kind != KindMalformedResponse {
		t.Fatalf("expected malformed response failure, got %+v", res)
	}
}
