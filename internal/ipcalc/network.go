package ipcalc

import (
	"math/bits"
	"net/netip"
	"strconv"
	"strings"
)

// Network is a prefix-aligned IPv4 block: a base address whose host bits
// are all zero, plus a prefix length.
type Network struct {
	base   uint32
	prefix int
}

// NewNetwork builds a Network from an address and prefix length, masking
// the address down to its prefix boundary.
func NewNetwork(addr netip.Addr, prefix int) (Network, error) {
	if !addr.IsValid() || !addr.Is4() {
		return Network{}, &AddressError{Input: addr.String(), Err: ErrInvalidAddress}
	}
	if prefix < 0 || prefix > 32 {
		return Network{}, &MaskError{Input: strconv.Itoa(prefix), Reason: "prefix length must be between 0 and 32"}
	}
	return Network{base: addrToUint32(addr) & maskValue(prefix), prefix: prefix}, nil
}

// ParseNetwork parses a network given as a CIDR prefix ("192.168.1.0/24")
// or a bare IPv4 address ("10.1.2.5" becomes 10.1.2.5/32). Host bits are
// masked off rather than rejected.
func ParseNetwork(s string) (Network, error) {
	in := strings.TrimSpace(s)
	if p, err := netip.ParsePrefix(in); err == nil {
		if !p.Addr().Is4() {
			return Network{}, &AddressError{Input: s, Err: ErrInvalidAddress}
		}
		return NewNetwork(p.Addr(), p.Bits())
	}
	if a, err := netip.ParseAddr(in); err == nil && a.Is4() {
		return NewNetwork(a, 32)
	}
	return Network{}, &AddressError{Input: s, Err: ErrInvalidAddress}
}

// Bits returns the prefix length.
func (n Network) Bits() int { return n.prefix }

// Addr returns the network (base) address.
func (n Network) Addr() netip.Addr { return uint32ToAddr(n.base) }

// Size returns the total number of addresses in the block. The result is
// a uint64 so a /0 block does not overflow.
func (n Network) Size() uint64 { return 1 << (32 - n.prefix) }

// Broadcast returns the last address of the block.
func (n Network) Broadcast() netip.Addr {
	return uint32ToAddr(n.base + uint32(n.Size()-1))
}

// Prefix returns the netip representation of the block.
func (n Network) Prefix() netip.Prefix {
	return netip.PrefixFrom(n.Addr(), n.prefix)
}

// String returns CIDR notation, e.g. "192.168.1.0/24".
func (n Network) String() string { return n.Prefix().String() }

// HostCapacity returns the number of usable host addresses in the block:
// size-2 below /31, both addresses at /31 (RFC 3021), one at /32.
func (n Network) HostCapacity() uint64 {
	switch {
	case n.prefix < 31:
		return n.Size() - 2
	case n.prefix == 31:
		return 2
	default:
		return 1
	}
}

// HostRange returns the first and last usable host addresses. Below /31
// the network and broadcast addresses are excluded; at /31 and /32 every
// address is usable.
func (n Network) HostRange() (first, last netip.Addr) {
	if n.prefix < 31 {
		return uint32ToAddr(n.base + 1), uint32ToAddr(n.base + uint32(n.Size()-2))
	}
	return n.Addr(), n.Broadcast()
}

// Contains reports whether other lies entirely within n.
func (n Network) Contains(other Network) bool {
	if other.prefix < n.prefix {
		return false
	}
	return other.base&maskValue(n.prefix) == n.base
}

// Overlaps reports whether the two blocks share any addresses.
func (n Network) Overlaps(other Network) bool {
	p := n.prefix
	if other.prefix < p {
		p = other.prefix
	}
	return n.base&maskValue(p) == other.base&maskValue(p)
}

// ceilLog2 returns the smallest k with 2^k >= v, for v >= 1.
func ceilLog2(v uint64) int {
	return bits.Len64(v - 1)
}

// prefixForHosts returns the longest prefix whose block can hold the
// requested number of usable hosts: /32 for one host, /31 for two, and
// otherwise room for the hosts plus network and broadcast addresses.
func prefixForHosts(hosts int) int {
	switch {
	case hosts <= 1:
		return 32
	case hosts == 2:
		return 31
	default:
		return 32 - ceilLog2(uint64(hosts)+2)
	}
}

// rangeToNetworks decomposes an inclusive uint32 address range into the
// minimal set of maximal, alignment-respecting power-of-two blocks.
// At each position it takes the largest block that is both aligned to
// its own size and fits within the remaining span.
func rangeToNetworks(start, end uint32) []Network {
	var result []Network
	for start <= end {
		maxBits := 32
		if start != 0 {
			maxBits = bits.TrailingZeros32(start)
		}
		remaining := uint64(end) - uint64(start) + 1
		fitBits := 63 - bits.LeadingZeros64(remaining) // floor(log2(remaining))
		if fitBits > maxBits {
			fitBits = maxBits
		}
		result = append(result, Network{base: start, prefix: 32 - fitBits})
		blockSize := uint64(1) << fitBits
		next := uint64(start) + blockSize
		if next > uint64(^uint32(0)) {
			break
		}
		start = uint32(next)
	}
	return result
}
