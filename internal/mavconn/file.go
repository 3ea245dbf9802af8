package mavconn

import (
	"context"
	"fmt"
	"os"

	"github.com/kstaniek/mavgw/internal/frame"
)

// dialFile implements file: offline replay from, or capture to, a plain
// file, opened read/write (created if missing) through one handle. Recv and
// Send share that handle's file offset: Send writes at the position reading
// has reached, which is the end of the file only once the whole stream has
// been read.
func dialFile(ctx context.Context, addr Address, reg frame.Registry, opts []Option) (Connection, error) {
	f, err := os.OpenFile(addr.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDial, err)
	}
	return newEndpoint(ctx, f, f, f, reg, opts), nil
}
