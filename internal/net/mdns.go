package net

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_localboard._tcp"

// Advertise announces a host on the local network until the returned server is shut down.
func Advertise(name string, port int, board string) (*mdns.Server, error) {
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		name = host
	}

	info := []string{"SyncBoard", "board=" + board}
	service, err := mdns.NewMDNSService(name, serviceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse looks for hosts for up to timeout and returns their addresses in the
// order they answered.
func Browse(timeout time.Duration, logger *log.Logger) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	var found []string

	go func() {
		defer close(done)
		seen := map[string]bool{}
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			addr := fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)
			if seen[addr] {
				continue
			}
			seen[addr] = true
			logger.Printf("found host %s at %s", e.Name, addr)
			found = append(found, addr)
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return found, fmt.Errorf("browse %s: %w", serviceType, err)
	}
	return found, nil
}
