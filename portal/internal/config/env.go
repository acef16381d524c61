package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"guest-portal/portal/internal/controller"
)

const (
	DefaultListenAddr   = ":8080"
	DefaultDBPath       = "portal.db"
	DefaultGuestMinutes = 60
	DefaultLogLevel     = "info"
)

// Environment variable names.
const (
	EnvControllerURL      = "UNIFI_BASE_URL"
	EnvControllerUser     = "UNIFI_USERNAME"
	EnvControllerPass     = "UNIFI_PASSWORD"
	EnvControllerSite     = "UNIFI_SITE"
	EnvInsecureSkipVerify = "UNIFI_INSECURE_SKIP_VERIFY"
	EnvControllerTimeout  = "UNIFI_TIMEOUT"
	EnvProbeTimeout       = "UNIFI_PROBE_TIMEOUT"
	EnvListenAddr         = "PORTAL_ADDR"
	EnvDBPath             = "PORTAL_DB_PATH"
	EnvGuestMinutes       = "PORTAL_GUEST_MINUTES"
	EnvAdminUser          = "PORTAL_ADMIN_USER"
	EnvAdminPass          = "PORTAL_ADMIN_PASS"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogDevelopment     = "LOG_DEVELOPMENT"
)

// flagNames maps cobra flag names onto the environment keys they override.
var flagNames = map[string]string{
	"controller-url":       EnvControllerURL,
	"site":                 EnvControllerSite,
	"insecure-skip-verify": EnvInsecureSkipVerify,
	"addr":                 EnvListenAddr,
	"db":                   EnvDBPath,
	"guest-minutes":        EnvGuestMinutes,
	"log-level":            EnvLogLevel,
}

type Env struct {
	ControllerURL      string
	ControllerUsername string
	ControllerPassword string
	ControllerSite     string
	InsecureSkipVerify bool
	ControllerTimeout  time.Duration
	ProbeTimeout       time.Duration

	ListenAddr   string
	DBPath       string
	GuestMinutes int
	AdminUser    string
	AdminPass    string

	LogLevel       string
	LogDevelopment bool
}

// LoadDotEnv reads .env files into the process environment. Missing files are ignored and
// variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{"portal/.env", ".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// LoadEnv reads the configuration from the environment. Flags that were set explicitly on
// the command line take precedence. flags may be nil.
func LoadEnv(flags *pflag.FlagSet) (Env, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvControllerSite, controller.DefaultSite)
	v.SetDefault(EnvInsecureSkipVerify, true)
	v.SetDefault(EnvControllerTimeout, controller.DefaultTimeout)
	v.SetDefault(EnvProbeTimeout, controller.DefaultProbeTimeout)
	v.SetDefault(EnvListenAddr, DefaultListenAddr)
	v.SetDefault(EnvDBPath, DefaultDBPath)
	v.SetDefault(EnvGuestMinutes, DefaultGuestMinutes)
	v.SetDefault(EnvLogLevel, DefaultLogLevel)
	v.SetDefault(EnvLogDevelopment, false)

	if flags != nil {
		for name, key := range flagNames {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Env{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	env := Env{
		ControllerURL:      strings.TrimRight(strings.TrimSpace(v.GetString(EnvControllerURL)), "/"),
		ControllerUsername: v.GetString(EnvControllerUser),
		ControllerPassword: v.GetString(EnvControllerPass),
		ControllerSite:     v.GetString(EnvControllerSite),
		InsecureSkipVerify: v.GetBool(EnvInsecureSkipVerify),
		ControllerTimeout:  durationValue(v, EnvControllerTimeout),
		ProbeTimeout:       durationValue(v, EnvProbeTimeout),
		ListenAddr:         v.GetString(EnvListenAddr),
		DBPath:             v.GetString(EnvDBPath),
		GuestMinutes:       v.GetInt(EnvGuestMinutes),
		AdminUser:          v.GetString(EnvAdminUser),
		AdminPass:          v.GetString(EnvAdminPass),
		LogLevel:           v.GetString(EnvLogLevel),
		LogDevelopment:     v.GetBool(EnvLogDevelopment),
	}
	if env.ControllerSite == "" {
		env.ControllerSite = controller.DefaultSite
	}

	return env, nil
}

// durationValue reads a duration such as "10s". A bare integer is taken as seconds.
func durationValue(v *viper.Viper, key string) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key))); err == nil {
		return time.Duration(n) * time.Second
	}
	return v.GetDuration(key)
}

// Validate rejects configurations the portal cannot run with. Missing controller
// credentials are allowed: every login then fails.
func (e Env) Validate() error {
	var errs []string

	if strings.TrimSpace(e.ControllerURL) == "" {
		errs = append(errs, EnvControllerURL+" is required")
	} else if !strings.HasPrefix(e.ControllerURL, "http://") && !strings.HasPrefix(e.ControllerURL, "https://") {
		errs = append(errs, EnvControllerURL+" must start with http:// or https://")
	}
	if e.GuestMinutes < 1 {
		errs = append(errs, EnvGuestMinutes+" must be at least 1")
	}
	if e.ControllerTimeout < time.Second {
		errs = append(errs, EnvControllerTimeout+" must be at least 1s")
	}
	if e.ProbeTimeout < time.Second {
		errs = append(errs, EnvProbeTimeout+" must be at least 1s")
	}
	if (e.AdminUser == "") != (e.AdminPass == "") {
		errs = append(errs, EnvAdminUser+" and "+EnvAdminPass+" must be set together")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (e Env) HasControllerCredentials() bool {
	return e.ControllerUsername != "" && e.ControllerPassword != ""
}

func (e Env) AdminEnabled() bool {
	return e.AdminUser != "" && e.AdminPass != ""
}

// Controller returns the controller credential set.
func (e Env) Controller() controller.Config {
	return controller.Config{
		BaseURL:            e.ControllerURL,
		Username:           e.ControllerUsername,
		Password:           e.ControllerPassword,
		Site:               e.ControllerSite,
		InsecureSkipVerify: e.InsecureSkipVerify,
		Timeout:            e.ControllerTimeout,
		ProbeTimeout:       e.ProbeTimeout,
	}
}
