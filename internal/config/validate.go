package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate trims string fields and checks the config for
// obvious misconfiguration. It returns a normalized copy alongside the
// findings; callers decide whether warnings block anything.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Sources.Scout.URL = strings.TrimSpace(out.Sources.Scout.URL)
	out.Sources.SpeedyApply.URL = strings.TrimSpace(out.Sources.SpeedyApply.URL)
	out.Sources.SpeedyApply.JobType = strings.ToLower(strings.TrimSpace(out.Sources.SpeedyApply.JobType))
	out.SMTP.Host = strings.TrimSpace(out.SMTP.Host)
	out.SMTP.Username = strings.TrimSpace(out.SMTP.Username)
	out.SMTP.From = strings.TrimSpace(out.SMTP.From)

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	checkURL := func(name, raw string) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			res.addErr("%s is not a valid absolute URL: %q", name, raw)
		}
	}
	if out.Sources.Scout.Enabled {
		checkURL("sources.scout.url", out.Sources.Scout.URL)
	}
	if out.Sources.SpeedyApply.Enabled {
		checkURL("sources.speedyapply.url", out.Sources.SpeedyApply.URL)
		switch out.Sources.SpeedyApply.JobType {
		case "", "internship", "newgrad":
		default:
			res.addErr("sources.speedyapply.job_type must be internship or newgrad, got %q", out.Sources.SpeedyApply.JobType)
		}
	}
	if !out.Sources.Scout.Enabled && !out.Sources.SpeedyApply.Enabled {
		res.addWarn("no sources enabled; the listing feed will always be empty")
	}

	if out.Fetch.TimeoutSeconds <= 0 {
		res.addErr("fetch.timeout_seconds must be > 0")
	}
	if out.Fetch.CacheSeconds < 0 {
		res.addErr("fetch.cache_seconds must be >= 0")
	}
	if out.Fetch.RatePerSec < 0 {
		res.addErr("fetch.rate_per_sec must be >= 0")
	}

	if out.Alerts.Enabled {
		if out.Alerts.IntervalSeconds <= 0 {
			res.addErr("alerts.interval_seconds must be > 0 when alerts are enabled")
		} else if out.Alerts.IntervalSeconds < 60 {
			res.addWarn("alerts.interval_seconds is very low (%d); subscribers may be rate limited by the SMTP relay", out.Alerts.IntervalSeconds)
		}
		if out.Alerts.SendTimeoutSeconds <= 0 {
			res.addErr("alerts.send_timeout_seconds must be > 0 when alerts are enabled")
		}
		if out.Alerts.Parallelism <= 0 {
			res.addErr("alerts.parallelism must be > 0 when alerts are enabled")
		}

		// Password is not part of the config file; it lives in the
		// keychain.
		if out.SMTP.Host == "" {
			res.addErr("smtp.host is required when alerts.enabled=true")
		}
		if out.SMTP.Port == 0 {
			res.addErr("smtp.port is required when alerts.enabled=true")
		}
		if out.SMTP.Username == "" {
			res.addErr("smtp.username is required when alerts.enabled=true")
		}
		if out.SMTP.From == "" {
			res.addErr("smtp.from is required when alerts.enabled=true")
		} else if !strings.Contains(out.SMTP.From, "@") {
			res.addErr("smtp.from does not look like an address: %q", out.SMTP.From)
		}
	}

	return out, res
}
