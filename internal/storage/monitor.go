package storage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pilebones/go-udev/netlink"

	"radiobank/internal/logging"
)

// Monitor watches udev netlink events for removable block storage, so a fill
// can start as soon as the SD card is inserted.
type Monitor struct {
	logger *slog.Logger
}

// NewMonitor constructs a Monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{logger: logging.WithComponent(logger, "storage-monitor")}
}

// WaitForRemovable blocks until a removable partition is added and returns
// its device node (e.g. /dev/sdb1), or fails when the context is cancelled.
func (m *Monitor) WaitForRemovable(ctx context.Context) (string, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return "", err
	}
	defer conn.Close()

	events := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(events, errs, removableMatcher())
	defer close(quit)

	m.logger.Info("waiting for removable storage")
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event := <-events:
			if device := deviceNode(event); device != "" {
				m.logger.Info("removable storage detected", logging.String("device", device))
				return device, nil
			}
		case err := <-errs:
			m.logger.Warn("netlink monitor error", logging.Error(err))
		}
	}
}

// removableMatcher selects add events for block partitions.
func removableMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "block",
			"DEVTYPE":   "partition",
		},
	})
	return rules
}

// deviceNode extracts the /dev node from a matched uevent.
func deviceNode(event netlink.UEvent) string {
	name := strings.TrimSpace(event.Env["DEVNAME"])
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "/dev/") {
		name = "/dev/" + name
	}
	return name
}
