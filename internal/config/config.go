// Package config loads the configuration of the example programs from a
// YAML file, MBRTU_* environment variables and command-line flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arloliu/go-mbrtu/logger"
	"github.com/arloliu/go-mbrtu/messaging"
	"github.com/arloliu/go-mbrtu/transport"
)

// Link types.
const (
	LinkRTU        = "rtu"
	LinkRTUOverTCP = "rtu-over-tcp"
)

// EnvPrefix prefixes environment overrides, e.g. MBRTU_SERIAL_DEVICE.
const EnvPrefix = "MBRTU"

// Config is the configuration of an RTU master or slave program.
type Config struct {
	Link      string          `mapstructure:"link"` // "rtu" or "rtu-over-tcp"
	Serial    SerialConfig    `mapstructure:"serial"`
	TCP       TCPConfig       `mapstructure:"tcp"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Poll      PollConfig      `mapstructure:"poll"`
	Log       LogConfig       `mapstructure:"log"`
}

// SerialConfig defines RTU line settings.
type SerialConfig struct {
	Device   string        `mapstructure:"device"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	Parity   string        `mapstructure:"parity"`
	StopBits int           `mapstructure:"stop_bits"`
	Timeout  time.Duration `mapstructure:"timeout"` // read timeout

	// RS485 specific
	RS485              bool          `mapstructure:"rs485"`
	DelayRtsBeforeSend time.Duration `mapstructure:"delay_rts_before_send"`
	DelayRtsAfterSend  time.Duration `mapstructure:"delay_rts_after_send"`
	RtsHighDuringSend  bool          `mapstructure:"rts_high_during_send"`
	RtsHighAfterSend   bool          `mapstructure:"rts_high_after_send"`
	RxDuringTx         bool          `mapstructure:"rx_during_tx"`
}

// TCPConfig defines the address of an RTU-over-TCP bridge.
type TCPConfig struct {
	Address     string        `mapstructure:"address"` // e.g. "192.168.1.100:4001"
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// MessagingConfig defines the request/response discipline.
type MessagingConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	Retries          int           `mapstructure:"retries"`
	DiscardDataDelay time.Duration `mapstructure:"discard_data_delay"`
	// CharSpacing enables byte-by-byte writes; zero disables it.
	CharSpacing time.Duration `mapstructure:"char_spacing"`
	// AutoCharSpacing sets a zero CharSpacing to one character time at
	// serial.baud_rate.
	AutoCharSpacing bool `mapstructure:"auto_char_spacing"`
}

// PollConfig defines the request a master sends periodically, or the
// slave address a slave answers to.
type PollConfig struct {
	SlaveID  uint8         `mapstructure:"slave_id"`
	Function uint8         `mapstructure:"function"`
	Address  uint16        `mapstructure:"address"`
	Quantity uint16        `mapstructure:"quantity"`
	Interval time.Duration `mapstructure:"interval"`
}

// LogConfig defines logging configuration.
type LogConfig struct {
	Level     string `mapstructure:"level"` // debug, info, warn, error
	AddSource bool   `mapstructure:"add_source"`
}

var defaults = map[string]any{
	"link":                         LinkRTU,
	"serial.device":                "/dev/ttyUSB0",
	"serial.baud_rate":             19200,
	"serial.data_bits":             8,
	"serial.parity":                "E",
	"serial.stop_bits":             1,
	"serial.timeout":               100 * time.Millisecond,
	"serial.rs485":                 false,
	"serial.delay_rts_before_send": time.Duration(0),
	"serial.delay_rts_after_send":  time.Duration(0),
	"serial.rts_high_during_send":  false,
	"serial.rts_high_after_send":   false,
	"serial.rx_during_tx":          false,
	"tcp.address":                  "127.0.0.1:4001",
	"tcp.dial_timeout":             3 * time.Second,
	"messaging.timeout":            messaging.DefaultTimeout,
	"messaging.retries":            messaging.DefaultRetries,
	"messaging.discard_data_delay": time.Duration(messaging.DefaultDiscardDataDelay),
	"messaging.char_spacing":       time.Duration(0),
	"messaging.auto_char_spacing":  false,
	"poll.slave_id":                1,
	"poll.function":                3,
	"poll.address":                 0,
	"poll.quantity":                1,
	"poll.interval":                time.Second,
	"log.level":                    "info",
	"log.add_source":               false,
}

// LoadConfig loads configuration from configFile, the environment and
// flags, in increasing order of precedence.
//
// When configFile is empty, config.yaml is searched in /etc/mbrtu,
// $HOME/.mbrtu and the working directory; a missing file is not an error
// in that case. flags may be nil. Flag names are the dotted keys, e.g.
// "serial.device".
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mbrtu/")
		v.AddConfigPath("$HOME/.mbrtu")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.fixup()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// RegisterFlags adds flags for the most used settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("link", "l", LinkRTU, "Link type (rtu, rtu-over-tcp).")
	fs.StringP("serial.device", "p", "/dev/ttyUSB0", "Serial port device name.")
	fs.IntP("serial.baud_rate", "s", 19200, "Serial port speed.")
	fs.String("serial.parity", "E", "Serial port parity (N, E, O).")
	fs.StringP("tcp.address", "a", "127.0.0.1:4001", "RTU-over-TCP bridge address.")
	fs.DurationP("messaging.timeout", "W", messaging.DefaultTimeout, "Response wait time per attempt.")
	fs.IntP("messaging.retries", "N", messaging.DefaultRetries, "Retries after the first attempt.")
	fs.Duration("messaging.char_spacing", 0, "Minimum delay between written bytes.")
	fs.Bool("messaging.auto_char_spacing", false, "Space written bytes by one character time at the baud rate.")
	fs.Uint8P("poll.slave_id", "i", 1, "Slave address.")
	fs.StringP("log.level", "v", "info", "Log verbosity level (debug, info, warn, error).")
}

func (cfg *Config) fixup() {
	cfg.Link = strings.ToLower(strings.TrimSpace(cfg.Link))
	cfg.Serial.Parity = strings.ToUpper(cfg.Serial.Parity)
	if cfg.Serial.Timeout == 0 {
		cfg.Serial.Timeout = 100 * time.Millisecond
	}
	if cfg.Messaging.Timeout == 0 {
		cfg.Messaging.Timeout = messaging.DefaultTimeout
	}
	if cfg.Messaging.AutoCharSpacing && cfg.Messaging.CharSpacing == 0 {
		cfg.Messaging.CharSpacing = transport.CharTime(cfg.Serial.BaudRate)
	}
}

func (cfg *Config) validate() error {
	switch cfg.Link {
	case LinkRTU:
		if cfg.Serial.Device == "" {
			return errors.New("config: serial.device is required for rtu link")
		}
	case LinkRTUOverTCP:
		if cfg.TCP.Address == "" {
			return errors.New("config: tcp.address is required for rtu-over-tcp link")
		}
	default:
		return fmt.Errorf("config: unknown link type %q", cfg.Link)
	}

	switch cfg.Serial.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("config: invalid parity %q", cfg.Serial.Parity)
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// Transport returns the serial settings in the form transport.OpenSerial takes.
func (s SerialConfig) Transport() transport.SerialConfig {
	return transport.SerialConfig{
		Device:   s.Device,
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
		StopBits: s.StopBits,
		Parity:   s.Parity,
		Timeout:  s.Timeout,
		RS485: transport.RS485Config{
			Enabled:            s.RS485,
			DelayRtsBeforeSend: s.DelayRtsBeforeSend,
			DelayRtsAfterSend:  s.DelayRtsAfterSend,
			RtsHighDuringSend:  s.RtsHighDuringSend,
			RtsHighAfterSend:   s.RtsHighAfterSend,
			RxDuringTx:         s.RxDuringTx,
		},
	}
}

// Options returns the MessageControl options for m.
func (m MessagingConfig) Options() []messaging.Option {
	return []messaging.Option{
		messaging.WithTimeout(m.Timeout),
		messaging.WithRetries(m.Retries),
		messaging.WithDiscardDataDelay(m.DiscardDataDelay),
	}
}

// ParsedLevel returns the log level, or info when it cannot be parsed.
func (l LogConfig) ParsedLevel() logger.Level {
	level, err := logger.ParseLevel(l.Level)
	if err != nil {
		return logger.InfoLevel
	}

	return level
}

// OpenTransport opens the link described by cfg.
func (cfg *Config) OpenTransport(ctx context.Context, opts ...transport.Option) (transport.Transport, error) {
	switch cfg.Link {
	case LinkRTUOverTCP:
		return transport.DialTCP(ctx, cfg.TCP.Address, cfg.TCP.DialTimeout, cfg.Messaging.CharSpacing, opts...)
	default:
		return transport.OpenSerial(cfg.Serial.Transport(), cfg.Messaging.CharSpacing, opts...)
	}
}
