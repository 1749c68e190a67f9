package transport

import (
	"fmt"
	"time"

	"github.com/grid-x/serial"
)

// SerialConfig describes a serial line.
type SerialConfig struct {
	// Device is the port path, e.g. "/dev/ttyUSB0" or "COM3".
	Device   string
	BaudRate int
	DataBits int
	StopBits int
	// Parity is "N", "E" or "O".
	Parity string
	// Timeout bounds each read; an idle line yields read timeouts, which
	// the read loop ignores.
	Timeout time.Duration

	RS485 RS485Config
}

// RS485Config controls RTS toggling for half-duplex RS485 adapters.
type RS485Config struct {
	Enabled            bool
	DelayRtsBeforeSend time.Duration
	DelayRtsAfterSend  time.Duration
	RtsHighDuringSend  bool
	RtsHighAfterSend   bool
	RxDuringTx         bool
}

// DefaultSerialConfig returns 19200 baud, 8 data bits, even parity and one
// stop bit, the Modbus RTU default line settings.
func DefaultSerialConfig(device string) SerialConfig {
	return SerialConfig{
		Device:   device,
		BaudRate: 19200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "E",
		Timeout:  100 * time.Millisecond,
	}
}

func (c SerialConfig) serialConfig() *serial.Config {
	cfg := &serial.Config{
		Address:  c.Device,
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		StopBits: c.StopBits,
		Parity:   c.Parity,
		Timeout:  c.Timeout,
	}
	if c.RS485.Enabled {
		cfg.RS485 = serial.RS485Config{
			Enabled:            true,
			DelayRtsBeforeSend: c.RS485.DelayRtsBeforeSend,
			DelayRtsAfterSend:  c.RS485.DelayRtsAfterSend,
			RtsHighDuringSend:  c.RS485.RtsHighDuringSend,
			RtsHighAfterSend:   c.RS485.RtsHighAfterSend,
			RxDuringTx:         c.RS485.RxDuringTx,
		}
	}

	return cfg
}

// OpenSerial opens a serial port and wraps it in a StreamTransport, or in a
// CharSpacedTransport when charSpacing is positive.
func OpenSerial(cfg SerialConfig, charSpacing time.Duration, opts ...Option) (Transport, error) {
	port, err := serial.Open(cfg.serialConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: open serial port %s: %w", ErrIO, cfg.Device, err)
	}

	o := newOptions(opts)
	o.logger.Info("serial port opened", "device", cfg.Device, "baudRate", cfg.BaudRate,
		"parity", cfg.Parity, "rs485", cfg.RS485.Enabled, "charSpacing", charSpacing)

	if charSpacing > 0 {
		return NewCharSpacedTransport(port, charSpacing, opts...), nil
	}

	return NewStreamTransport(port, opts...), nil
}
