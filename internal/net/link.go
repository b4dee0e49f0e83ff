package net

import (
	"fmt"
	"strings"
)

// CustomURLScheme prefixes share links handed to other players.
const CustomURLScheme = "localboard://"

// DefaultPort is where hosts listen unless told otherwise.
const DefaultPort = 8888

// ShareLink builds the link a host hands out for one of its boards.
func ShareLink(ip string, port int, board string) string {
	link := fmt.Sprintf("%s%s:%d", CustomURLScheme, ip, port)
	if board != "" {
		link += "/" + board
	}
	return link
}

// ParseShareLink splits a share link into the host address and the board. The
// board is empty when the link does not name one. A bare host:port is accepted too.
func ParseShareLink(link string) (addr, board string, err error) {
	rest := strings.TrimPrefix(strings.TrimSpace(link), CustomURLScheme)
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return "", "", fmt.Errorf("share link %q has no host", link)
	}
	addr, board, _ = strings.Cut(rest, "/")
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%d", addr, DefaultPort)
	}
	return addr, board, nil
}
