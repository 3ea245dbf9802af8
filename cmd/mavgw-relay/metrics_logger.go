package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kstaniek/mavgw/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"frames_decoded", snap.FramesDecoded,
					"frames_encoded", snap.FramesEncoded,
					"crc_errors", snap.CRCErrors,
					"unknown_messages", snap.UnknownMessages,
					"signing_rejects", snap.SigningRejects,
					"resync_events", snap.ResyncEvents,
					"hub_drops", snap.HubDrops,
					"hub_kicks", snap.HubKicks,
					"hub_rejects", snap.HubRejects,
					"hub_clients", snap.HubClients,
					"errors", snap.Errors,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
