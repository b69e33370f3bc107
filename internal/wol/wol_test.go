package wol

import (
	"bytes"
	"net"
	"testing"
)

func TestMagicPacket(t *testing.T) {
	mac, err := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatal(err)
	}
	packet, err := MagicPacket(mac)
	if err != nil {
		t.Fatalf("MagicPacket: %v", err)
	}
	if len(packet) != 102 {
		t.Fatalf("len = %d, want 102", len(packet))
	}
	if !bytes.Equal(packet[:6], []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("header = %x, want six 0xFF bytes", packet[:6])
	}
	for i := 0; i < 16; i++ {
		chunk := packet[6+i*6 : 12+i*6]
		if !bytes.Equal(chunk, mac) {
			t.Errorf("repetition %d = %x, want %x", i, chunk, []byte(mac))
		}
	}
}

func TestMagicPacketWrongLength(t *testing.T) {
	if _, err := MagicPacket(net.HardwareAddr{0xAA, 0xBB}); err == nil {
		t.Error("expected error for short MAC")
	}
}

func TestSendInvalidMAC(t *testing.T) {
	if err := Send("not-a-mac", ""); err == nil {
		t.Error("expected error for invalid MAC")
	}
}

func TestSendToLocalListener(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := Send("aa:bb:cc:dd:ee:ff", conn.LocalAddr().String()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	buf := make([]byte, 256)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if n != 102 {
		t.Errorf("received %d bytes, want 102", n)
	}
}
