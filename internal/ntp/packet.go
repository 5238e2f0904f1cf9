// Package ntp is a minimal SNTP client: one 48-byte request out, the
// transmit timestamp of whatever reply comes back in.
package ntp

import (
	"encoding/binary"
	"errors"
)

const (
	// Seconds from the NTP epoch (1900) to the Unix epoch (1970), including 17 leap days
	epochOffset uint32 = 2208988800

	Port      = 123
	PacketLen = 48

	LeapIndicatorUnknown = 3
	Version              = 4
	ModeClient           = 3

	transmitSecondsOffset = 40
)

var errShortPacket = errors.New("short ntp packet")

// Packet is one NTP datagram.
type Packet [PacketLen]byte

// NewRequest returns a client request: LI 3 (unsynchronized), VN 4, mode 3,
// i.e. 0xE3 followed by zeros.
func NewRequest() Packet {
	var p Packet
	p[0] = LeapIndicatorUnknown<<6 | Version<<3 | ModeClient
	return p
}

// ParsePacket copies b into a Packet. Datagrams shorter than PacketLen are rejected.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < PacketLen {
		return Packet{}, errShortPacket
	}
	return Packet(b[:PacketLen]), nil
}

// LVM returns the leap indicator, version and mode byte.
func (p *Packet) LVM() byte { return p[0] }

// TransmitSeconds returns the integer part of the transmit timestamp,
// in seconds since 1900-01-01T00:00:00Z.
func (p *Packet) TransmitSeconds() uint32 {
	return binary.BigEndian.Uint32(p[transmitSecondsOffset : transmitSecondsOffset+4])
}

// SetTransmitSeconds sets the integer part of the transmit timestamp.
func (p *Packet) SetTransmitSeconds(s uint32) {
	binary.BigEndian.PutUint32(p[transmitSecondsOffset:transmitSecondsOffset+4], s)
}

// UnixSeconds converts the transmit timestamp to Unix time.
func (p *Packet) UnixSeconds() uint32 {
	return p.TransmitSeconds() - epochOffset
}
