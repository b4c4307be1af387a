package ipcalc

import "fmt"

// Subnet is one equal-split subnet together with its usable host capacity.
type Subnet struct {
	Network Network
	Hosts   uint64
}

// SplitResult is the outcome of an equal-split calculation.
type SplitResult struct {
	Subnets []Subnet
	// BitsBorrowed is the number of host bits converted to subnet bits.
	BitsBorrowed int
	// HostsPerSubnet is the usable host capacity shared by every subnet.
	HostsPerSubnet uint64
	// TotalSubnets is the number of subnets of the chosen size that fit
	// in the base network, which may exceed len(Subnets).
	TotalSubnets uint64
}

// SplitByCount divides the base network into count equal subnets,
// borrowing the fewest host bits that yield at least count subnets.
// Exactly count subnets are returned, in address order.
func SplitByCount(base Network, count int) (*SplitResult, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: subnet count %d", ErrTooManySubnets, count)
	}

	bitsNeeded := ceilLog2(uint64(count))
	newPrefix := base.prefix + bitsNeeded
	if newPrefix > 32 {
		return nil, fmt.Errorf("%w: %d subnets do not fit in %s", ErrTooManySubnets, count, base)
	}

	step := uint32(1) << (32 - newPrefix)
	capacity := Network{prefix: newPrefix}.HostCapacity()
	subnets := make([]Subnet, count)
	for i := range subnets {
		n := Network{base: base.base + uint32(i)*step, prefix: newPrefix}
		subnets[i] = Subnet{Network: n, Hosts: capacity}
	}

	return &SplitResult{
		Subnets:        subnets,
		BitsBorrowed:   bitsNeeded,
		HostsPerSubnet: capacity,
		TotalSubnets:   1 << bitsNeeded,
	}, nil
}

// SplitByHostCapacity divides the base network into equal subnets sized
// for at least hosts usable addresses each. Unlike SplitByCount it
// enumerates every subnet of that size within the base network.
func SplitByHostCapacity(base Network, hosts int) (*SplitResult, error) {
	if hosts < 1 {
		return nil, fmt.Errorf("%w: host count %d", ErrTooManyHosts, hosts)
	}

	newPrefix := prefixForHosts(hosts)
	if newPrefix < base.prefix {
		return nil, fmt.Errorf("%w: %d hosts do not fit in %s", ErrTooManyHosts, hosts, base)
	}

	total := uint64(1) << (newPrefix - base.prefix)
	step := uint32(1) << (32 - newPrefix)
	capacity := Network{prefix: newPrefix}.HostCapacity()
	subnets := make([]Subnet, total)
	for i := range subnets {
		n := Network{base: base.base + uint32(i)*step, prefix: newPrefix}
		subnets[i] = Subnet{Network: n, Hosts: capacity}
	}

	return &SplitResult{
		Subnets:        subnets,
		BitsBorrowed:   newPrefix - base.prefix,
		HostsPerSubnet: capacity,
		TotalSubnets:   total,
	}, nil
}
