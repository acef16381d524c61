package controller

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	pathRoot      = "/"
	pathAuthLogin = "/api/auth/login"
	pathLegacy    = "/api/login"
	pathStaMgr    = "/api/s/%s/cmd/stamgr"
	pathStatSta   = "/api/s/%s/stat/sta"
	pathHealth    = "/api/s/%s/stat/health"
)

// loginPaths is tried in order; firmware versions expose login at different paths.
var loginPaths = []string{pathAuthLogin, pathLegacy}

const (
	DefaultSite         = "default"
	DefaultTimeout      = 10 * time.Second
	DefaultProbeTimeout = 5 * time.Second

	rcOK          = "ok"
	cmdAuthorize  = "authorize-guest"
	maxDetailSize = 200
)

// Config is the controller credential set. It is read once at startup and never mutated.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Site     string

	// InsecureSkipVerify disables TLS certificate validation. Controllers usually serve a
	// self-signed certificate on a private network.
	InsecureSkipVerify bool

	Timeout      time.Duration
	ProbeTimeout time.Duration
}

func (c Config) site() string {
	if strings.TrimSpace(c.Site) == "" {
		return DefaultSite
	}
	return c.Site
}

func (c Config) sitePath(format string) string {
	return fmt.Sprintf(format, c.site())
}

func (c Config) hasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type stamgrRequest struct {
	Cmd     string `json:"cmd"`
	MAC     string `json:"mac"`
	Minutes int    `json:"minutes"`
}

type envelopeMeta struct {
	RC  string `json:"rc"`
	Msg string `json:"msg,omitempty"`
}

// envelope is the JSON wrapper every controller API response uses.
type envelope struct {
	Meta envelopeMeta    `json:"meta"`
	Data json.RawMessage `json:"data"`
}

// ClientRecord is one station reported by the controller.
type ClientRecord struct {
	ID         string `json:"_id"`
	MAC        string `json:"mac"`
	Name       string `json:"name,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	IP         string `json:"ip"`
	APMAC      string `json:"ap_mac"`
	ESSID      string `json:"essid"`
	Channel    int    `json:"channel"`
	Signal     int    `json:"signal"`
	Uptime     int64  `json:"uptime"`
	LastSeen   int64  `json:"last_seen"`
	TxBytes    int64  `json:"tx_bytes"`
	RxBytes    int64  `json:"rx_bytes"`
	IsGuest    bool   `json:"is_guest"`
	IsWired    bool   `json:"is_wired"`
	Authorized bool   `json:"authorized"`
}

// SubsystemHealth is one entry of the controller health report.
type SubsystemHealth struct {
	Subsystem string `json:"subsystem"`
	Status    string `json:"status"`
	NumAP     int    `json:"num_ap,omitempty"`
	NumUser   int    `json:"num_user,omitempty"`
	NumGuest  int    `json:"num_guest,omitempty"`
}

// HealthSnapshot is the per-subsystem health of the configured site. An empty snapshot
// means the controller did not report health.
type HealthSnapshot struct {
	Subsystems []SubsystemHealth `json:"subsystems"`
}

// Empty reports whether no subsystem was returned.
func (h HealthSnapshot) Empty() bool {
	return len(h.Subsystems) == 0
}
