// Command controller runs the input-multiplexer controller daemon: it
// grabs the configured physical input devices, dispatches their events
// to the currently active controlled peer (or a fixed passthrough
// peer), and switches peers on a configurable hotkey.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/inmpx/inmpx/config"
	"github.com/inmpx/inmpx/controller"
	"github.com/inmpx/inmpx/daemon"
	"github.com/inmpx/inmpx/envelope"
	"github.com/inmpx/inmpx/evdevreader"
	"github.com/inmpx/inmpx/logging"
	"github.com/inmpx/inmpx/transport"
	"github.com/juju/errors"
	"golang.org/x/sync/errgroup"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

var version = "dev"

func main() {
	opts := config.ParseFlags(os.Args[0])
	if opts.ShowVersion {
		fmt.Printf("inmpx-controller %s\n", version)
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

	log := logging.New(logLevelFromString(opts.LogLevel), "controller: ")

	if err := run(opts, log); err != nil {
		log.Errorf("%s", errors.ErrorStack(err))
		os.Exit(exitFailure)
	}
}

func run(opts *config.Options, log logging.Logger) error {
	cfg, err := config.LoadController(opts.ConfigPath)
	if err != nil {
		return err
	}
	if len(cfg.Peers) == 0 {
		return errors.New("controller: config declares no peers")
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

	peers := make([]*controller.Peer, len(cfg.Peers))
	for i, peerCfg := range cfg.Peers {
		conn, err := transport.DialPeer(peerCfg.Transport)
		if err != nil {
			return errors.Annotatef(err, "dialing peer %d", i)
		}
		defer conn.Close()
		peers[i] = controller.NewPeer(conn, peerCfg.PostSwitchCommand)
	}

	switcher := controller.NewSwitcher(peers, sealer, cfg.Encryption.TimeDivision, cfg.SwitchableDevice, cfg.SwitchModifier, cfg.SwitchKey, log)
	dispatcher := controller.NewDispatcher(peers, switcher, sealer, cfg.Encryption.TimeDivision, cfg.SwitchableDevice, cfg.PassthroughKeys, cfg.PassthroughClient, log)

	devices := make([]*evdevreader.Device, 0, len(cfg.Devices))
	for _, devCfg := range cfg.Devices {
		dev, err := evdevreader.Open(devCfg.DevicePath)
		if err != nil {
			for _, d := range devices {
				d.Close()
			}
			return errors.Annotatef(err, "opening device %s", devCfg.DevicePath)
		}
		devices = append(devices, dev)
	}

	log.Infof("controller started with %d device(s), %d peer(s)", len(devices), len(peers))

	group := new(errgroup.Group)
	for i, dev := range devices {
		dev, deviceID := dev, cfg.Devices[i].DeviceID
		group.Go(func() error {
			err := readLoop(dev, deviceID, dispatcher)
			// A reader that stops closes every device, so the other
			// readers return too and Wait reports the first error.
			for _, d := range devices {
				d.Close()
			}
			return err
		})
	}

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGINT, syscall.SIGTERM)

	errs := make(chan error, 1)
	go func() { errs <- group.Wait() }()

	select {
	case <-term:
		log.Info("received termination signal, shutting down")
		// Closing the device fds unblocks any reader still parked in a
		// blocking read; this is the controller's version of the blunt,
		// no-graceful-flush cancellation spec.md §5 documents.
		for _, d := range devices {
			d.Close()
		}
		<-errs
	case err := <-errs:
		if err != nil {
			log.Errorf("device reader failed: %v", err)
		}
		for _, d := range devices {
			d.Close()
		}
	}

	return nil
}

func readLoop(dev *evdevreader.Device, deviceID uint32, dispatcher *controller.Dispatcher) error {
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		dispatcher.HandleEvent(deviceID, ev.Type, ev.Code, ev.Value)
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
