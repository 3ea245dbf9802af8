//go:build mavgw_gobugst_serial

package mavconn

import (
	"time"

	gobugst "go.bug.st/serial"
)

// Alternate serial backend selected with -tags mavgw_gobugst_serial. Some
// USB-UART adapters report DSR/CTS transitions that tarm/serial silently
// swallows; go.bug.st/serial exposes line-status reads if that's ever
// needed, at the cost of a heavier dependency surface.
func openSerial(device string, baud int) (serialPort, error) {
	mode := &gobugst.Mode{BaudRate: baud}
	port, err := gobugst.Open(device, mode)
	if err != nil {
		return nil, err
	}
	_ = port.SetReadTimeout(500 * time.Millisecond)
	return port, nil
}
