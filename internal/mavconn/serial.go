//go:build !mavgw_gobugst_serial

package mavconn

import (
	"time"

	"github.com/tarm/serial"
)

// serialPort abstracts tarm/serial for testability.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

func openSerial(device string, baud int) (serialPort, error) {
	cfg := &serial.Config{Name: device, Baud: baud, ReadTimeout: 500 * time.Millisecond}
	return serial.OpenPort(cfg)
}
