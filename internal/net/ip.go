package net

import (
	"fmt"
	"log"
	"net"
)

// OutgoingIP finds the local address other machines should use to reach
// this one.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return localIPFallback()
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// localIPFallback is used on networks without internet access.
func localIPFallback() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Printf("[NET] Listing interfaces failed: %v", err)
		return "127.0.0.1"
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	log.Println("[NET] No suitable local IP found, falling back to loopback")
	return "127.0.0.1"
}

// ShareURL is the feed URL for viewers on other machines.
func ShareURL(port int) string {
	return fmt.Sprintf("ws://%s:%d%s", OutgoingIP(), port, FeedPath)
}
