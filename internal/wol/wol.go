// Package wol sends Wake-on-LAN magic packets.
package wol

import (
	"fmt"
	"net"
)

// DefaultBroadcast is the standard WOL destination.
const DefaultBroadcast = "255.255.255.255:9"

// MagicPacket builds the 102-byte payload for mac: six 0xFF bytes followed by
// the MAC repeated sixteen times.
func MagicPacket(mac net.HardwareAddr) ([]byte, error) {
	if len(mac) != 6 {
		return nil, fmt.Errorf("wol: expected 6-byte MAC, got %d bytes", len(mac))
	}
	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, mac...)
	}
	return packet, nil
}

// Send parses macStr and fires a magic packet at broadcastAddr (empty means
// DefaultBroadcast).
func Send(macStr, broadcastAddr string) error {
	mac, err := net.ParseMAC(macStr)
	if err != nil {
		return fmt.Errorf("wol: invalid MAC address %q: %w", macStr, err)
	}
	packet, err := MagicPacket(mac)
	if err != nil {
		return err
	}

	if broadcastAddr == "" {
		broadcastAddr = DefaultBroadcast
	}
	conn, err := net.Dial("udp", broadcastAddr)
	if err != nil {
		return fmt.Errorf("wol: dial %s: %w", broadcastAddr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("wol: send packet: %w", err)
	}
	return nil
}
