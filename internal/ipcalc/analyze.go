package ipcalc

import "net/netip"

// Analysis is the result of analyzing one address against one mask.
// It is either fully populated or not produced at all.
type Analysis struct {
	Address       netip.Addr
	AddressBinary string
	Mask          Mask
	Network       Network
	FirstHost     netip.Addr
	LastHost      netip.Addr
	TotalHosts    uint64
}

// Analyze computes the network membership of an address under a mask.
// The address may be dotted-decimal or a 32-bit binary pattern; the mask
// may be in any notation ParseMask accepts.
func Analyze(address, mask string) (*Analysis, error) {
	var addr netip.Addr
	var err error
	if isBinaryPattern(address) {
		addr, err = BinaryToAddress(address)
	} else {
		addr, err = ParseAddress(address)
	}
	if err != nil {
		return nil, err
	}

	m, err := ParseMask(mask)
	if err != nil {
		return nil, err
	}

	network, err := NewNetwork(addr, m.Prefix)
	if err != nil {
		return nil, err
	}

	first, last := network.HostRange()
	return &Analysis{
		Address:       addr,
		AddressBinary: binaryGroups(addrToUint32(addr)),
		Mask:          m,
		Network:       network,
		FirstHost:     first,
		LastHost:      last,
		TotalHosts:    network.HostCapacity(),
	}, nil
}
