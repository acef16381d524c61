package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Outcome is the tri-state result of a controller call.
type Outcome int

const (
	Success Outcome = iota
	AuthFailure
	TransportFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AuthFailure:
		return "auth-failure"
	case TransportFailure:
		return "transport-error"
	default:
		return "unknown"
	}
}

// ErrorKind classifies a failed call for diagnostics.
type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindTransport             ErrorKind = "transport"
	KindAuthentication        ErrorKind = "authentication"
	KindAuthorizationRejected ErrorKind = "authorization-rejected"
	KindMalformedResponse     ErrorKind = "malformed-response"
	KindUnexpectedStatus      ErrorKind = "unexpected-status"
)

// Result is the interpreted answer to one controller call.
type Result struct {
	Outcome Outcome
	Kind    ErrorKind
	Rule    string
	Status  int
	Detail  string
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}

// reply is a RawResponse with its body decoded once.
type reply struct {
	RawResponse
	// parsed is true when the body is a JSON object.
	parsed bool
	env    envelope
}

func newReply(raw RawResponse) reply {
	r := reply{RawResponse: raw}
	trimmed := strings.TrimSpace(string(raw.Body))
	if strings.HasPrefix(trimmed, "{") && json.Unmarshal(raw.Body, &r.env) == nil {
		r.parsed = true
	}
	return r
}

// jsonPresent reports whether the body is JSON of any shape. Arrays and scalars count as
// JSON for the non-ok rule, so only bodies that fail to parse get the tolerant treatment.
func (r reply) jsonPresent() bool {
	return r.parsed || json.Valid(r.Body)
}

func (r reply) rcOK() bool {
	return r.parsed && r.env.Meta.RC == rcOK
}

func (r reply) isRedirect() bool {
	switch r.Status {
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		return true
	}
	return false
}

func (r reply) redirectsToLogin() bool {
	return strings.Contains(strings.ToLower(r.Location), "login")
}

// detail is the body cut to maxDetailSize bytes without splitting a UTF-8 sequence.
func (r reply) detail() string {
	body := r.Body
	if len(body) > maxDetailSize {
		n := maxDetailSize
		for n > 0 && !utf8.RuneStart(body[n]) {
			n--
		}
		body = body[:n]
	}
	return string(body)
}

// decision is one row of a decision table.
type decision struct {
	rule    string
	when    func(reply) bool
	outcome Outcome
	kind    ErrorKind
}

type decisionTable []decision

// decide returns the first matching row; the last row of every table matches anything.
func (t decisionTable) decide(raw RawResponse) Result {
	r := newReply(raw)
	for _, d := range t {
		if !d.when(r) {
			continue
		}
		res := Result{Outcome: d.outcome, Kind: d.kind, Rule: d.rule, Status: r.Status}
		if d.outcome != Success {
			res.Detail = r.detail()
		}
		return res
	}
	return Result{Outcome: AuthFailure, Kind: KindUnexpectedStatus, Rule: "no-match", Status: r.Status, Detail: r.detail()}
}

func status(code int) func(reply) bool {
	return func(r reply) bool { return r.Status == code }
}

func all(preds ...func(reply) bool) func(reply) bool {
	return func(r reply) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func not(p func(reply) bool) func(reply) bool {
	return func(r reply) bool { return !p(r) }
}

func always(reply) bool { return true }

var (
	statusOK    = status(http.StatusOK)
	resultOK    = func(r reply) bool { return r.rcOK() }
	bodyJSON    = func(r reply) bool { return r.jsonPresent() }
	redirected  = func(r reply) bool { return r.isRedirect() }
	toLoginPage = func(r reply) bool { return r.redirectsToLogin() }
	denied      = func(r reply) bool {
		return r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden
	}
)

// loginDecisions interprets one login candidate. 200 with an unparseable body is
// accepted because some firmware answers a successful login with HTML; this can mask an
// error page served with 200.
var loginDecisions = decisionTable{
	{rule: "json-ok", when: all(statusOK, resultOK), outcome: Success},
	{rule: "html-200", when: all(statusOK, not(bodyJSON)), outcome: Success},
	{rule: "json-not-ok", when: statusOK, outcome: AuthFailure, kind: KindAuthentication},
	{rule: "redirect-away", when: all(redirected, not(toLoginPage)), outcome: Success},
	{rule: "redirect-login", when: redirected, outcome: AuthFailure, kind: KindAuthentication},
	{rule: "default", when: always, outcome: AuthFailure, kind: KindAuthentication},
}

// authorizeDecisions interprets the authorize-guest command.
var authorizeDecisions = decisionTable{
	{rule: "json-ok", when: all(statusOK, resultOK), outcome: Success},
	{rule: "html-200", when: all(statusOK, not(bodyJSON)), outcome: Success},
	{rule: "json-not-ok", when: statusOK, outcome: AuthFailure, kind: KindAuthorizationRejected},
	{rule: "denied", when: denied, outcome: AuthFailure, kind: KindAuthentication},
	{rule: "default", when: always, outcome: AuthFailure, kind: KindUnexpectedStatus},
}

// queryDecisions interprets read-only status queries; anything but a JSON ok is a failure.
var queryDecisions = decisionTable{
	{rule: "json-ok", when: all(statusOK, resultOK), outcome: Success},
	{rule: "not-json", when: all(statusOK, not(bodyJSON)), outcome: AuthFailure, kind: KindMalformedResponse},
	{rule: "json-not-ok", when: statusOK, outcome: AuthFailure, kind: KindAuthorizationRejected},
	{rule: "denied", when: denied, outcome: AuthFailure, kind: KindAuthentication},
	{rule: "default", when: always, outcome: AuthFailure, kind: KindUnexpectedStatus},
}

func transportResult(err error) Result {
	return Result{Outcome: TransportFailure, Kind: KindTransport, Rule: "transport", Detail: err.Error()}
}
