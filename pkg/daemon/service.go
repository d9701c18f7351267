package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/zachwinter/valve/pkg/logging"
)

const (
	systemdUnitTemplate = `[Unit]
Description=Valve file watcher daemon
After=network.target

[Service]
Type=simple
ExecStart=%s run
Restart=always
RestartSec=3

[Install]
WantedBy=multi-user.target
`

	launchdPlistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>com.valve.daemon</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>run</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
</dict>
</plist>
`

	systemdUnitPath  = "/etc/systemd/system/valve.service"
	launchdPlistName = "com.valve.daemon.plist"
)

// InstallService writes the platform-appropriate service definition for
// valve and, where supported, registers it with the local service manager.
// Service management is not exercised by the daemon itself; these are
// inert templates for operators who want valve to start at login/boot.
func InstallService(logger *logging.Logger) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("unable to determine executable path: %w", err)
	}

	switch runtime.GOOS {
	case "linux":
		unit := fmt.Sprintf(systemdUnitTemplate, executable)
		if err := os.WriteFile(systemdUnitPath, []byte(unit), 0644); err != nil {
			return fmt.Errorf("unable to write systemd unit: %w", err)
		}
		if err := exec.Command("systemctl", "daemon-reload").Run(); err != nil {
			logger.Warnf("systemctl daemon-reload failed: %s", err.Error())
		}
		if err := exec.Command("systemctl", "enable", "valve").Run(); err != nil {
			logger.Warnf("systemctl enable failed: %s", err.Error())
		}
		logger.Println("installed systemd service at", systemdUnitPath)
		return nil
	case "darwin":
		plist := fmt.Sprintf(launchdPlistTemplate, executable)
		path := filepath.Join(homeDirectory, "Library", "LaunchAgents", launchdPlistName)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("unable to create LaunchAgents directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(plist), 0644); err != nil {
			return fmt.Errorf("unable to write launchd plist: %w", err)
		}
		logger.Println("installed launchd plist at", path)
		return nil
	case "windows":
		logger.Println("service install is not automated on Windows; register valve with Task Scheduler or run it in the foreground")
		return nil
	default:
		return fmt.Errorf("service install not supported on %s", runtime.GOOS)
	}
}

// UninstallService removes whatever service definition InstallService wrote.
func UninstallService(logger *logging.Logger) error {
	switch runtime.GOOS {
	case "linux":
		if err := exec.Command("systemctl", "disable", "valve").Run(); err != nil {
			logger.Warnf("systemctl disable failed: %s", err.Error())
		}
		if err := os.Remove(systemdUnitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to remove systemd unit: %w", err)
		}
		return nil
	case "darwin":
		path := filepath.Join(homeDirectory, "Library", "LaunchAgents", launchdPlistName)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unable to remove launchd plist: %w", err)
		}
		return nil
	default:
		logger.Println("nothing to uninstall on", runtime.GOOS)
		return nil
	}
}

// StartService asks the local service manager to start the installed
// service. It does not start the daemon directly; use the run command for
// that.
func StartService(logger *logging.Logger) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("systemctl", "start", "valve").Run()
	case "darwin":
		path := filepath.Join(homeDirectory, "Library", "LaunchAgents", launchdPlistName)
		return exec.Command("launchctl", "load", path).Run()
	default:
		logger.Println("start is not automated on", runtime.GOOS)
		return nil
	}
}

// StopService asks the local service manager to stop the installed service.
func StopService(logger *logging.Logger) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("systemctl", "stop", "valve").Run()
	case "darwin":
		path := filepath.Join(homeDirectory, "Library", "LaunchAgents", launchdPlistName)
		return exec.Command("launchctl", "unload", path).Run()
	default:
		logger.Println("stop is not automated on", runtime.GOOS)
		return nil
	}
}
