package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Options are the command-line flags shared by both daemons, parsed
// with pflag the same way wireguard-go's flags.Parse does.
type Options struct {
	ConfigPath  string
	Foreground  bool
	LogLevel    string
	ShowVersion bool
}

// ParseFlags parses os.Args into Options. prog is used only in the
// usage banner.
func ParseFlags(prog string) *Options {
	opts := &Options{}

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", prog)
		pflag.PrintDefaults()
	}

	pflag.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the YAML configuration file")
	pflag.BoolVarP(&opts.Foreground, "foreground", "f", false, "Remain in the foreground instead of daemonizing")
	pflag.StringVar(&opts.LogLevel, "log-level", "info", "One of silent, error, info, debug")
	pflag.BoolVarP(&opts.ShowVersion, "version", "v", false, "Print the version number and exit")

	pflag.Parse()
	return opts
}
