// Package ipcalc implements the IPv4 address-space computation engine:
// address and mask parsing, single-address analysis, equal-split
// subnetting, and a best-fit VLSM allocator over a 32-bit address space.
//
// All math is done on uint32 addresses with net/netip at the edges.
// Every operation is a pure function; there is no shared state.
package ipcalc

import (
	"math/bits"
	"net/netip"
	"strconv"
	"strings"
)

// addrToUint32 converts an IPv4 address to a uint32 in network byte order.
func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// uint32ToAddr converts a uint32 to an IPv4 netip.Addr.
func uint32ToAddr(u uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}

// ParseAddress parses a dotted-decimal IPv4 address.
func ParseAddress(s string) (netip.Addr, error) {
	a, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil || !a.Is4() {
		return netip.Addr{}, &AddressError{Input: s, Err: ErrInvalidAddress}
	}
	return a, nil
}

// AddressToBinary converts a dotted-decimal IPv4 address to its 32-bit
// binary form grouped in four octets ("11000000.10101000.00000001.01100100").
func AddressToBinary(s string) (string, error) {
	a, err := ParseAddress(s)
	if err != nil {
		return "", err
	}
	return binaryGroups(addrToUint32(a)), nil
}

// binaryGroups formats a uint32 as four dot-separated 8-bit groups.
func binaryGroups(u uint32) string {
	var sb strings.Builder
	for i := 3; i >= 0; i-- {
		octet := byte(u >> (8 * i))
		for bit := 7; bit >= 0; bit-- {
			if octet&(1<<bit) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		if i > 0 {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// BinaryToAddress parses a 32-digit binary string into an IPv4 address.
// Dots and spaces are ignored; anything other than exactly 32 binary
// digits fails with ErrInvalidBinary.
func BinaryToAddress(s string) (netip.Addr, error) {
	clean := strings.NewReplacer(".", "", " ", "").Replace(s)
	if len(clean) != 32 {
		return netip.Addr{}, &AddressError{Input: s, Err: ErrInvalidBinary}
	}
	var u uint32
	for i := 0; i < 32; i++ {
		switch clean[i] {
		case '1':
			u |= 1 << (31 - i)
		case '0':
		default:
			return netip.Addr{}, &AddressError{Input: s, Err: ErrInvalidBinary}
		}
	}
	return uint32ToAddr(u), nil
}

// isBinaryPattern reports whether s is a 32-bit binary address pattern
// (only 0/1 digits plus dot or space separators, 32 digits total).
// A dotted-decimal address like "1.0.1.1" has fewer than 32 digits and
// is not mistaken for binary.
func isBinaryPattern(s string) bool {
	digits := 0
	for _, r := range s {
		switch r {
		case '0', '1':
			digits++
		case '.', ' ':
		default:
			return false
		}
	}
	return digits == 32
}

// Mask is a parsed subnet mask in its three equivalent notations.
type Mask struct {
	// Prefix is the CIDR prefix length in [0, 32].
	Prefix int
	// Dotted is the dotted-decimal form, e.g. "255.255.255.0".
	Dotted string
	// Binary is the grouped binary form of the mask value.
	Binary string
}

// CIDR returns the slash notation for the mask, e.g. "/24".
func (m Mask) CIDR() string {
	return "/" + strconv.Itoa(m.Prefix)
}

// maskValue returns the 32-bit mask value for a prefix length.
func maskValue(prefix int) uint32 {
	if prefix <= 0 {
		return 0
	}
	return ^uint32(0) << (32 - prefix)
}

// ParseMask parses a subnet mask given as "/24", "255.255.255.0", or "24".
// A dotted-decimal mask is reduced to its set-bit count; contiguity is
// not enforced. Fails with ErrInvalidPrefix (via MaskError) when the
// syntax is malformed or the prefix falls outside [0, 32].
func ParseMask(s string) (Mask, error) {
	in := strings.TrimSpace(s)

	var prefix int
	switch {
	case strings.HasPrefix(in, "/"):
		n, err := strconv.Atoi(in[1:])
		if err != nil {
			return Mask{}, &MaskError{Input: s, Reason: "malformed CIDR notation"}
		}
		prefix = n
	case strings.Contains(in, "."):
		a, err := netip.ParseAddr(in)
		if err != nil || !a.Is4() {
			return Mask{}, &MaskError{Input: s, Reason: "malformed dotted-decimal mask"}
		}
		prefix = bits.OnesCount32(addrToUint32(a))
	default:
		n, err := strconv.Atoi(in)
		if err != nil {
			return Mask{}, &MaskError{Input: s, Reason: "not a prefix length"}
		}
		prefix = n
	}

	if prefix < 0 || prefix > 32 {
		return Mask{}, &MaskError{Input: s, Reason: "prefix length must be between 0 and 32"}
	}

	v := maskValue(prefix)
	return Mask{
		Prefix: prefix,
		Dotted: uint32ToAddr(v).String(),
		Binary: binaryGroups(v),
	}, nil
}
