// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/mcstatus/internal/logger"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// Command names.
const (
	CommandPing  = "ping"
	CommandScan  = "scan"
	CommandServe = "serve"
)

// DefaultPort is used when a ping address has no port.
const DefaultPort uint16 = 25565

// ErrNoCommand is returned when neither a command nor --version was given.
var ErrNoCommand = errors.New("please specify one command of: ping or scan")

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Logger logger.Config `group:"Logger Options" namespace:"log" env-namespace:"MCSTATUS_LOG"`

	Ping  PingCommand  `command:"ping" description:"Query the status of a server and measure its latency"`
	Scan  ScanCommand  `command:"scan" description:"Find ports on a host that answer the status exchange"`
	Serve ServeCommand `command:"serve" description:"Run a fake status server for testing" hidden:"true"`

	// Command is the name of the command selected on the command line.
	Command string `no-flag:"true"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// PingCommand holds the options of the ping command.
type PingCommand struct {
	// betteralign:ignore

	Query Query `group:"Query Options" env-namespace:"MCSTATUS"`
	GeoIP GeoIP `group:"GeoIP Options" namespace:"geoip" env-namespace:"MCSTATUS_GEOIP"`

	JSON bool `short:"j" long:"json" description:"Print the report as JSON"`

	Args struct {
		Address string `positional-arg-name:"address[:port]" description:"Server address, the port defaults to 25565"`
	} `positional-args:"yes" required:"yes"`
}

// ScanCommand holds the options of the scan command.
type ScanCommand struct {
	// betteralign:ignore

	Scan Scan `group:"Scan Options" env-namespace:"MCSTATUS_SCAN"`

	JSON bool `short:"j" long:"json" description:"Print the report as JSON"`

	Args struct {
		Address string `positional-arg-name:"address" description:"Host to scan"`
	} `positional-args:"yes" required:"yes"`
}

// ServeCommand holds the options of the hidden serve command.
type ServeCommand struct {
	// betteralign:ignore

	Listen     string `short:"l" long:"listen" env:"MCSTATUS_SERVE_LISTEN" description:"Listen address" default:"127.0.0.1:25565"`
	MOTD       string `long:"motd" env:"MCSTATUS_SERVE_MOTD" description:"Message of the day, random when empty"`
	Mode       string `long:"mode" env:"MCSTATUS_SERVE_MODE" description:"Answer mode" choice:"status" choice:"garbage" choice:"silent" choice:"bad-pong" choice:"close" default:"status"`
	MaxPlayers int    `long:"max-players" env:"MCSTATUS_SERVE_MAX_PLAYERS" description:"Advertised player slots" default:"20"`
}

// Query holds status query configuration.
type Query struct {
	// betteralign:ignore

	Timeout       time.Duration `short:"t" long:"timeout" env:"TIMEOUT" description:"Connect timeout" default:"5s"`
	IOTimeout     time.Duration `long:"io-timeout" env:"IO_TIMEOUT" description:"Timeout of each exchange step after connecting" default:"5s"`
	ServerAddress string        `long:"server-address" env:"SERVER_ADDRESS" description:"Hostname declared in the handshake instead of the resolved IP"`
	Proxy         string        `long:"proxy" env:"PROXY" description:"Dial through a SOCKS5 proxy, e.g. socks5://127.0.0.1:9050"`
	NoSRV         bool          `long:"no-srv" env:"NO_SRV" description:"Skip the _minecraft._tcp SRV lookup for hostnames without a port"`
}

// Scan holds port range scan configuration.
type Scan struct {
	// betteralign:ignore

	From    uint16        `long:"from" env:"FROM" description:"First port of the range" default:"1"`
	To      uint16        `long:"to" env:"TO" description:"Last port of the range, inclusive" default:"65535"`
	Timeout time.Duration `short:"t" long:"timeout" env:"TIMEOUT" description:"Per-port probe timeout" default:"500ms"`
	Workers int           `short:"w" long:"workers" env:"WORKERS" description:"Maximum concurrent connections" default:"256"`
	Rate    float64       `short:"r" long:"rate" env:"RATE" description:"Maximum new connections per second, 0 for unlimited" default:"0"`
	Proxy   string        `long:"proxy" env:"PROXY" description:"Dial through a SOCKS5 proxy, e.g. socks5://127.0.0.1:9050"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, country lookup is disabled when empty"`
	URL      string        `long:"url" env:"URL" description:"URL to download the MMDB from when missing or outdated"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help or version flag is invoked.
func Parse() *Config {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, ErrNoCommand) {
			newParser(&Config{}).WriteHelp(os.Stderr)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print(os.Stdout)
		os.Exit(0)
	}

	return cfg
}

// ParseArgs parses args without exiting the process.
func ParseArgs(args []string) (*Config, error) {
	var cfg Config
	parser := newParser(&cfg)

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}
	if cfg.Version {
		return &cfg, nil
	}
	if cfg.Command == "" {
		return nil, ErrNoCommand
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks option values that go-flags cannot express.
func (c *Config) Validate() error {
	switch c.Command {
	case CommandPing:
		if c.Ping.Query.Timeout <= 0 {
			return fmt.Errorf("ping: --timeout must be positive")
		}
		if c.Ping.Query.IOTimeout <= 0 {
			return fmt.Errorf("ping: --io-timeout must be positive")
		}
		if len(c.Ping.Query.ServerAddress) > 255 {
			return fmt.Errorf("ping: --server-address is longer than 255 bytes")
		}
	case CommandScan:
		if c.Scan.Scan.Timeout <= 0 {
			return fmt.Errorf("scan: --timeout must be positive")
		}
		if c.Scan.Scan.Workers <= 0 {
			return fmt.Errorf("scan: --workers must be positive")
		}
		if c.Scan.Scan.Rate < 0 {
			return fmt.Errorf("scan: --rate must not be negative")
		}
	case CommandServe:
		if c.Serve.MaxPlayers < 0 {
			return fmt.Errorf("serve: --max-players must not be negative")
		}
	}

	return nil
}

func newParser(cfg *Config) *flags.Parser {
	parser := flags.NewParser(cfg, flags.Default)
	parser.NamespaceDelimiter = "-"
	parser.SubcommandsOptional = true

	return parser
}
