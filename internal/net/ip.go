package net

import (
	"log"
	"net"
)

// OutgoingIP finds the preferred local IP address for the host to share.
func OutgoingIP(logger *log.Logger) string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route out, fall back to checking local interfaces
		return localIPFallback(logger)
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// localIPFallback is used on networks without internet access.
func localIPFallback(logger *log.Logger) string {
	ifaces, err := net.Interfaces()
	if err != nil {
		logger.Printf("list interfaces: %v", err)
		return "127.0.0.1"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	logger.Println("no suitable local IP found, share link points at loopback")
	return "127.0.0.1"
}
