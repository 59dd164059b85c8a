// Package scan discovers NETCONF-capable devices on the network using nmap.
package scan

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"netdrift/internal/netconf"
)

// Device is a host found during a scan.
type Device struct {
	Address   string `json:"address"`
	Hostname  string `json:"hostname,omitempty"`
	OpenPorts []int  `json:"open_ports"`

	// Netconf reports whether the NETCONF port was open, making the host a
	// candidate for intent management.
	Netconf bool `json:"netconf"`
}

// Scanner probes targets for management ports.
type Scanner struct {
	portRange string
	timeout   time.Duration
}

// NewScanner creates a scanner probing SSH and NETCONF by default.
func NewScanner(timeout time.Duration) *Scanner {
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return &Scanner{
		portRange: fmt.Sprintf("22,%d", netconf.DefaultPort),
		timeout:   timeout,
	}
}

// Scan probes the given targets. Targets may be single addresses, hostnames
// or CIDR ranges. An empty port range probes the default management ports.
func (s *Scanner) Scan(ctx context.Context, targets []string, ports string) ([]Device, error) {
	expanded, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}
	if len(expanded) == 0 {
		return nil, fmt.Errorf("no scan targets given")
	}

	if ports == "" {
		ports = s.portRange
	}
	if err := validatePorts(ports); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(expanded...),
		nmap.WithPorts(ports),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	log.Printf("Scanning %d targets for management ports", len(expanded))
	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		log.Printf("Scan warnings: %v", *warnings)
	}

	devices := collectDevices(result)
	log.Printf("Scan complete, %d hosts up", len(devices))
	return devices, nil
}

// collectDevices converts nmap results to devices, skipping hosts that are
// down or carry no address.
func collectDevices(result *nmap.Run) []Device {
	if result == nil {
		return nil
	}

	var devices []Device
	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		var ip string
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" {
				ip = addr.Addr
				break
			}
		}
		if ip == "" {
			ip = host.Addresses[0].Addr
		}

		device := Device{Address: ip}
		if len(host.Hostnames) > 0 {
			device.Hostname = host.Hostnames[0].Name
		}

		for _, port := range host.Ports {
			if port.State.State != "open" {
				continue
			}
			device.OpenPorts = append(device.OpenPorts, int(port.ID))
			if int(port.ID) == netconf.DefaultPort {
				device.Netconf = true
			}
		}
		devices = append(devices, device)
	}
	return devices
}

// expandTargets validates targets, keeping CIDR notation as-is since nmap
// handles the expansion.
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
			continue
		}
		expanded = append(expanded, target)
	}
	return expanded, nil
}

// validatePorts checks a port range string like "22,830" or "1-1000".
func validatePorts(portRange string) error {
	for _, part := range strings.Split(portRange, ",") {
		part = strings.TrimSpace(part)
		if strings.Contains(part, "-") {
			bounds := strings.Split(part, "-")
			if len(bounds) != 2 {
				return fmt.Errorf("invalid port range: %s", part)
			}
			start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil || start < 1 || start > 65535 {
				return fmt.Errorf("invalid port number: %s", bounds[0])
			}
			end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil || end < 1 || end > 65535 || end < start {
				return fmt.Errorf("invalid port number: %s", bounds[1])
			}
			continue
		}
		port, err := strconv.Atoi(part)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %s", part)
		}
	}
	return nil
}
