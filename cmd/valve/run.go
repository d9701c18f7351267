package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/control"
	"github.com/zachwinter/valve/pkg/daemon"
	"github.com/zachwinter/valve/pkg/logging"
	"github.com/zachwinter/valve/pkg/registry"
	"github.com/zachwinter/valve/pkg/supervisor"
)

// terminationSignals are the signals that request daemon shutdown.
var terminationSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// reloadSignal requests that the supervisor reconcile against the current
// registry, picking up any registrations made via the control plane.
const reloadSignal = syscall.SIGHUP

func runMain(_ *cobra.Command, _ []string) error {
	logger := logging.RootLogger

	// Acquire an exclusive lock on the daemon lockfile. Only one valve
	// daemon can run per user at a time.
	lock, err := daemon.AcquireLock(logger)
	if err != nil {
		return fmt.Errorf("unable to acquire daemon lock (is valve already running?): %w", err)
	}
	defer lock.Release()

	registryPath, err := daemon.RegistryPath()
	if err != nil {
		return fmt.Errorf("unable to compute registry path: %w", err)
	}
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("unable to load registry: %w", err)
	}

	chroniclePath, err := daemon.ChroniclePath()
	if err != nil {
		return fmt.Errorf("unable to compute chronicle path: %w", err)
	}

	super := supervisor.New(chroniclePath, logger.Sublogger("supervisor"))
	reconcile := func() { super.Reconcile(reg.Snapshot()) }

	controlServer, err := control.Listen(rootConfiguration.port, reg, reconcile, logger.Sublogger("control"))
	if err != nil {
		return fmt.Errorf("unable to start control plane: %w", err)
	}

	reconcile()

	controlErrors := make(chan error, 1)
	go func() {
		controlErrors <- controlServer.Serve()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, append(terminationSignals, reloadSignal)...)

	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			super.Shutdown()
			controlServer.Close()
		})
	}
	defer shutdown()

	for {
		select {
		case s := <-signals:
			if s == reloadSignal {
				logger.Println("received reload signal, reconciling")
				reconcile()
				continue
			}
			logger.Println("received termination signal:", s)
			shutdown()
			return nil
		case err := <-controlErrors:
			if err != nil {
				logger.Errorf("control plane terminated abnormally: %s", err.Error())
			}
			shutdown()
			return err
		}
	}
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the valve daemon in the foreground",
	Args:  cobra.NoArgs,
	RunE:  runMain,
}
