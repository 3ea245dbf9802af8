package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kstaniek/mavgw/internal/dialect/common"
	"github.com/kstaniek/mavgw/internal/mavconn"
	"github.com/kstaniek/mavgw/internal/signing"
)

// initVehicle dials the vehicle-side connection, wiring up v2 signing if a
// root secret file was configured.
func initVehicle(ctx context.Context, cfg *appConfig) (mavconn.Connection, error) {
	opts := []mavconn.Option{
		mavconn.WithIdentity(byte(cfg.systemID), byte(cfg.componentID)),
	}
	if cfg.signKeyFile != "" {
		secret, err := os.ReadFile(cfg.signKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading sign-key-file: %w", err)
		}
		sc, err := signing.New(secret,
			signing.WithOutboundLinkID(byte(cfg.linkID)),
			signing.WithAllowUnsigned(cfg.allowUnsigned),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing signing context: %w", err)
		}
		opts = append(opts, mavconn.WithSigner(sc, byte(cfg.linkID)), mavconn.WithVerifier(sc))
	}
	return mavconn.Dial(ctx, cfg.vehicleAddr, common.Dialect, opts...)
}
