package ipcalc

import (
	"fmt"
	"sort"
)

// AllocatedSubnet is one VLSM allocation. OriginalPosition is the index
// of the request in the caller's hosts list.
type AllocatedSubnet struct {
	Network          Network
	Hosts            uint64
	HostsRequested   int
	OriginalPosition int
}

// VLSMResult is the outcome of a VLSM allocation. Subnets are ordered by
// the caller's original request positions, not by address.
type VLSMResult struct {
	Subnets             []AllocatedSubnet
	TotalHostsRequested int
	TotalHostsAllocated uint64
	// Free holds the unallocated remainder of the base network as
	// aligned blocks, in address order.
	Free []Network
}

// freeSet is a collection of unallocated aligned blocks. Operations
// return new sets rather than mutating in place, so each allocation step
// is an independent value.
type freeSet []Network

// bestFit selects the smallest free block that can contain a sub-block
// of the given prefix length: among blocks with prefix <= required, the
// one with the largest prefix, ties broken by lowest address. The
// returned set no longer contains the chosen block.
func (f freeSet) bestFit(required int) (Network, freeSet, bool) {
	best := -1
	for i, b := range f {
		if b.prefix > required {
			continue
		}
		if best == -1 || b.prefix > f[best].prefix ||
			(b.prefix == f[best].prefix && b.base < f[best].base) {
			best = i
		}
	}
	if best == -1 {
		return Network{}, f, false
	}
	rest := make(freeSet, 0, len(f)-1)
	rest = append(rest, f[:best]...)
	rest = append(rest, f[best+1:]...)
	return f[best], rest, true
}

// carve splits a sub-block of the given prefix length off the start of
// block and decomposes the remainder into maximal aligned blocks.
func carve(block Network, prefix int) (Network, []Network) {
	allocated := Network{base: block.base, prefix: prefix}
	if prefix == block.prefix {
		return allocated, nil
	}
	remStart := block.base + uint32(allocated.Size())
	remEnd := block.base + uint32(block.Size()-1)
	return allocated, rangeToNetworks(remStart, remEnd)
}

// AllocateVLSM carves one subnet per requested host count out of the base
// network. Requests are processed largest-first (ties in request order)
// against a best-fit free-block set, and each allocation's remainder is
// returned to the set as maximal aligned blocks. The whole call fails
// with an AllocationError if any single request cannot be placed.
func AllocateVLSM(base Network, hosts []int) (*VLSMResult, error) {
	for _, h := range hosts {
		if h < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidHostCount, h)
		}
	}

	// Largest first; sort.SliceStable keeps equal requests in caller order.
	order := make([]int, len(hosts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return hosts[order[i]] > hosts[order[j]]
	})

	free := freeSet{base}
	subnets := make([]AllocatedSubnet, 0, len(hosts))
	var totalRequested int
	var totalAllocated uint64

	for _, idx := range order {
		h := hosts[idx]
		required := prefixForHosts(h)

		block, rest, ok := free.bestFit(required)
		if !ok {
			return nil, &AllocationError{Hosts: h}
		}
		allocated, remainder := carve(block, required)
		free = append(rest, remainder...)

		subnets = append(subnets, AllocatedSubnet{
			Network:          allocated,
			Hosts:            allocated.HostCapacity(),
			HostsRequested:   h,
			OriginalPosition: idx,
		})
		totalRequested += h
		totalAllocated += allocated.HostCapacity()
	}

	sort.Slice(subnets, func(i, j int) bool {
		return subnets[i].OriginalPosition < subnets[j].OriginalPosition
	})
	sort.Slice(free, func(i, j int) bool {
		return free[i].base < free[j].base
	})

	return &VLSMResult{
		Subnets:             subnets,
		TotalHostsRequested: totalRequested,
		TotalHostsAllocated: totalAllocated,
		Free:                free,
	}, nil
}
