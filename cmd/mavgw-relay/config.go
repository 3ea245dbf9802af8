package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	vehicleAddr     string
	listenAddr      string
	logFormat       string
	logLevel        string
	metricsAddr     string
	hubBuffer       int
	hubPolicy       string
	logMetricsEvery time.Duration
	maxClients      int
	clientReadTO    time.Duration
	systemID        int
	componentID     int
	signKeyFile     string
	linkID          int
	allowUnsigned   bool
	mdnsEnable      bool
	mdnsName        string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	vehicle := flag.String("vehicle", "serial:/dev/ttyUSB0:57600", "Vehicle-side mavconn address (serial:<dev>:<baud>, tcpout:<host>:<port>, udpin:<host>:<port>, ...)")
	listen := flag.String("listen", ":5760", "TCP listen address for ground-control clients")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	hubBuf := flag.Int("hub-buffer", 512, "Per-client hub buffer (frames)")
	hubPolicy := flag.String("hub-policy", "drop", "Backpressure policy: drop|kick")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters (for non-Prometheus setups)")
	maxClients := flag.Int("max-clients", 0, "Maximum simultaneous ground-control clients (0 = unlimited)")
	clientReadTO := flag.Duration("client-read-timeout", 60*time.Second, "Per-connection read deadline on ground-control sockets")
	systemID := flag.Int("system-id", 1, "System ID this relay identifies as when forwarding client traffic upstream")
	componentID := flag.Int("component-id", 1, "Component ID this relay identifies as when forwarding client traffic upstream")
	signKeyFile := flag.String("sign-key-file", "", "Path to a 32-byte v2 signing root secret; empty disables signing")
	linkID := flag.Int("link-id", 0, "Signing link id used for frames this relay originates")
	allowUnsigned := flag.Bool("allow-unsigned", true, "Accept unsigned v2 frames even when signing is configured")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS/Avahi advertisement")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default mavgw-relay-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.vehicleAddr = *vehicle
	cfg.listenAddr = *listen
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.hubBuffer = *hubBuf
	cfg.hubPolicy = *hubPolicy
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.maxClients = *maxClients
	cfg.clientReadTO = *clientReadTO
	cfg.systemID = *systemID
	cfg.componentID = *componentID
	cfg.signKeyFile = *signKeyFile
	cfg.linkID = *linkID
	cfg.allowUnsigned = *allowUnsigned
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs basic semantic validation of the parsed configuration.
// It does not attempt to dial the vehicle or bind the listener.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	switch c.hubPolicy {
	case "drop", "kick":
	default:
		return fmt.Errorf("invalid hub-policy: %s", c.hubPolicy)
	}
	if c.hubBuffer <= 0 {
		return fmt.Errorf("hub-buffer must be > 0 (got %d)", c.hubBuffer)
	}
	if c.clientReadTO <= 0 {
		return fmt.Errorf("client-read-timeout must be > 0")
	}
	if c.maxClients < 0 {
		return fmt.Errorf("max-clients must be >= 0")
	}
	if c.systemID < 0 || c.systemID > 255 {
		return fmt.Errorf("system-id must be in [0,255]")
	}
	if c.componentID < 0 || c.componentID > 255 {
		return fmt.Errorf("component-id must be in [0,255]")
	}
	if c.linkID < 0 || c.linkID > 255 {
		return fmt.Errorf("link-id must be in [0,255]")
	}
	if c.vehicleAddr == "" {
		return errors.New("vehicle address must not be empty")
	}
	return nil
}

// applyEnvOverrides maps MAVGW_RELAY_* environment variables to config
// fields unless a corresponding flag was explicitly set. Flags always win.
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }
	setInt := func(flagName, envName string, dst *int, allowZero bool) {
		if _, ok := set[flagName]; ok {
			return
		}
		if v, ok := get(envName); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && (n > 0 || allowZero) {
				*dst = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid %s: %w", envName, err)
			}
		}
	}
	setDur := func(flagName, envName string, dst *time.Duration, allowZero bool) {
		if _, ok := set[flagName]; ok {
			return
		}
		if v, ok := get(envName); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && (d > 0 || allowZero) {
				*dst = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid %s: %w", envName, err)
			}
		}
	}
	setStr := func(flagName, envName string, dst *string) {
		if _, ok := set[flagName]; ok {
			return
		}
		if v, ok := get(envName); ok && v != "" {
			*dst = v
		}
	}

	setStr("vehicle", "MAVGW_RELAY_VEHICLE", &c.vehicleAddr)
	setStr("listen", "MAVGW_RELAY_LISTEN", &c.listenAddr)
	setStr("log-format", "MAVGW_RELAY_LOG_FORMAT", &c.logFormat)
	setStr("log-level", "MAVGW_RELAY_LOG_LEVEL", &c.logLevel)
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("MAVGW_RELAY_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	setInt("hub-buffer", "MAVGW_RELAY_HUB_BUFFER", &c.hubBuffer, false)
	setStr("hub-policy", "MAVGW_RELAY_HUB_POLICY", &c.hubPolicy)
	setInt("max-clients", "MAVGW_RELAY_MAX_CLIENTS", &c.maxClients, true)
	setDur("client-read-timeout", "MAVGW_RELAY_CLIENT_READ_TIMEOUT", &c.clientReadTO, false)
	setInt("system-id", "MAVGW_RELAY_SYSTEM_ID", &c.systemID, true)
	setInt("component-id", "MAVGW_RELAY_COMPONENT_ID", &c.componentID, true)
	setStr("sign-key-file", "MAVGW_RELAY_SIGN_KEY_FILE", &c.signKeyFile)
	setInt("link-id", "MAVGW_RELAY_LINK_ID", &c.linkID, true)
	setDur("log-metrics-interval", "MAVGW_RELAY_LOG_METRICS_INTERVAL", &c.logMetricsEvery, true)
	if _, ok := set["allow-unsigned"]; !ok {
		if v, ok := get("MAVGW_RELAY_ALLOW_UNSIGNED"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.allowUnsigned = true
			case "0", "false", "no", "off":
				c.allowUnsigned = false
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("MAVGW_RELAY_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	setStr("mdns-name", "MAVGW_RELAY_MDNS_NAME", &c.mdnsName)
	return firstErr
}
