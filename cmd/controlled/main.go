// Command controlled runs the input-multiplexer controlled daemon: it
// listens for encoded events on a bound transport and replays each one
// on the matching synthetic input device.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inmpx/inmpx/config"
	"github.com/inmpx/inmpx/controlled"
	"github.com/inmpx/inmpx/daemon"
	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/logging"
	"github.com/inmpx/inmpx/transport"
	"github.com/inmpx/inmpx/uinput"
	"github.com/juju/errors"
)

const exitFailure = 1

var version = "dev"

func main() {
	opts := config.ParseFlags(os.Args[0])
	if opts.ShowVersion {
		fmt.Printf("inmpx-controlled %s\n", version)
		return
	}
	if opts.ConfigPath == "" {
		fmt.Fprintln(os.Stderr, "missing required -c/--config flag")
		os.Exit(exitFailure)
	}

	if !opts.Foreground {
		if err := daemon.Daemonize(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "failed to daemonize: %v\n", err)
			os.Exit(exitFailure)
		}
		return
	}

	log := logging.New(logLevelFromString(opts.LogLevel), "controlled: ")

	if err := run(opts, log); err != nil {
		log.Errorf("%s", errors.ErrorStack(err))
		os.Exit(exitFailure)
	}
}

func run(opts *config.Options, log logging.Logger) error {
	cfg, err := config.LoadControlled(opts.ConfigPath)
	if err != nil {
		return err
	}
	if len(cfg.Devices) == 0 {
		return errors.New("controlled: config declares no devices")
	}

	var sealer *envelope.Sealer
	if cfg.Encryption.Enabled {
		key, err := envelope.LoadKey(cfg.Encryption.KeyPath)
		if err != nil {
			return err
		}
		sealer, err = envelope.NewSealer(key, envelope.ContextFromString(cfg.Encryption.Context))
		if err != nil {
			return errors.Annotate(err, "building encryption envelope")
		}
	}

	devices, err := uinput.NewSet(cfg)
	if err != nil {
		return errors.Annotate(err, "creating synthetic devices")
	}
	defer devices.Close()

	listener, err := transport.Listen(cfg.Listen)
	if err != nil {
		return errors.Annotate(err, "binding listener")
	}
	defer listener.Close()

	decoder := controlled.NewDecoder(sealer, cfg.Encryption.TimeDivision, log)
	replayer := controlled.NewReplayer(listener, decoder, devices, log)

	log.Infof("controlled started with %d device(s)", len(cfg.Devices))

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() { errs <- replayer.Run() }()

	select {
	case <-term:
		log.Info("received termination signal, shutting down")
		replayer.Stop()
		listener.Close()
		<-errs
		return nil
	case err := <-errs:
		return err
	}
}

func logLevelFromString(s string) int {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "info":
		return logging.LevelInfo
	case "error":
		return logging.LevelError
	case "silent":
		return logging.LevelSilent
	default:
		return logging.LevelInfo
	}
}
