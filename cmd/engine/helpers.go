package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net"
	"net/http"
	"time"

	"scout-engine/internal/config"
	"scout-engine/internal/domain"
	"scout-engine/internal/scrape/scout"
	"scout-engine/internal/scrape/speedyapply"
	"scout-engine/internal/scrape/types"
	"scout-engine/internal/scrape/util"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}

func buildFetchers(cfg config.Config, limiter *util.HostLimiter) []types.Fetcher {
	var fetchers []types.Fetcher
	if cfg.Sources.Scout.Enabled {
		fetchers = append(fetchers, scout.New(scout.Config{
			URL: cfg.Sources.Scout.URL,
		}, limiter))
	}
	if cfg.Sources.SpeedyApply.Enabled {
		fetchers = append(fetchers, speedyapply.New(speedyapply.Config{
			URL:     cfg.Sources.SpeedyApply.URL,
			JobType: domain.JobType(cfg.Sources.SpeedyApply.JobType),
		}, limiter))
	}
	return fetchers
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func shutdownHandler(token *string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard (covers typical desktop usage)
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr can sometimes be just a host; fall back safely
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// Token guard
		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(*token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
