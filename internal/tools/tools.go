// Package tools exposes the subnetting engine through the two call
// contracts consumed by presentation layers: single-address analysis and
// subnet calculation. Inputs and outputs are plain strings and
// JSON-shaped structs so callers always receive a renderable value;
// failures surface as an error message field, never a panic.
package tools

import (
	"fmt"
	"strconv"
	"strings"

	"ipmentor/internal/ipcalc"
)

// Method names accepted by SubnetCalculate.
const (
	MethodMaxSubnets = "max_subnets"
	MethodMaxHosts   = "max_hosts_per_subnet"
	MethodVLSM       = "vlsm"
)

// IPInfoResult is the payload of the ip-info contract. On failure only
// Error is set; on success Error is empty and every other field is set.
type IPInfoResult struct {
	IPDecimal        string `json:"ip_decimal,omitempty"`
	IPBinary         string `json:"ip_binary,omitempty"`
	SubnetMaskDotted string `json:"subnet_mask_decimal,omitempty"`
	SubnetMaskBinary string `json:"subnet_mask_binary,omitempty"`
	SubnetMaskCIDR   string `json:"subnet_mask_cidr,omitempty"`
	NetworkAddress   string `json:"network_address,omitempty"`
	BroadcastAddress string `json:"broadcast_address,omitempty"`
	FirstHost        string `json:"first_host,omitempty"`
	LastHost         string `json:"last_host,omitempty"`
	TotalHosts       uint64 `json:"total_hosts,omitempty"`
	Error            string `json:"error,omitempty"`
}

// SubnetRow is one subnet in a SubnetCalcResult.
type SubnetRow struct {
	Subnet    string `json:"subnet"`
	Network   string `json:"network"`
	Broadcast string `json:"broadcast"`
	FirstHost string `json:"first_host"`
	LastHost  string `json:"last_host"`
	Hosts     uint64 `json:"hosts"`
	// VLSM only.
	HostsRequested int `json:"hosts_requested,omitempty"`
	OriginalOrder  int `json:"original_order,omitempty"`
}

// SubnetCalcResult is the payload of the subnet-calc contract. Metadata
// fields are populated per method; on failure only Error is set.
type SubnetCalcResult struct {
	Method  string      `json:"method,omitempty"`
	Subnets []SubnetRow `json:"subnets,omitempty"`

	BitsBorrowed   int    `json:"bits_borrowed,omitempty"`
	HostsPerSubnet uint64 `json:"hosts_per_subnet,omitempty"`
	TotalSubnets   uint64 `json:"total_subnets,omitempty"`

	TotalHostsRequested int    `json:"total_hosts_requested,omitempty"`
	TotalHostsAllocated uint64 `json:"total_hosts_allocated,omitempty"`

	// Warning reports a count/hosts-list disagreement that was resolved
	// in favor of the hosts list.
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IPInfo analyzes one address against one subnet mask.
func IPInfo(address, mask string) *IPInfoResult {
	a, err := ipcalc.Analyze(address, mask)
	if err != nil {
		return &IPInfoResult{Error: err.Error()}
	}
	first, last := a.Network.HostRange()
	return &IPInfoResult{
		IPDecimal:        a.Address.String(),
		IPBinary:         a.AddressBinary,
		SubnetMaskDotted: a.Mask.Dotted,
		SubnetMaskBinary: a.Mask.Binary,
		SubnetMaskCIDR:   a.Mask.CIDR(),
		NetworkAddress:   a.Network.Addr().String(),
		BroadcastAddress: a.Network.Broadcast().String(),
		FirstHost:        first.String(),
		LastHost:         last.String(),
		TotalHosts:       a.TotalHosts,
	}
}

// SubnetCalculate partitions a base network under one of three methods:
// max_subnets (equal split by target count), max_hosts_per_subnet (equal
// split by per-subnet capacity), or vlsm (best-fit variable-length
// allocation driven by hostsList, a comma-separated list of host counts).
// For vlsm an absent or zero count is derived from the hosts list; a
// disagreeing count is overridden by the hosts list length and reported
// in the result's Warning field.
func SubnetCalculate(network, count, method, hostsList string) *SubnetCalcResult {
	base, err := ipcalc.ParseNetwork(network)
	if err != nil {
		return &SubnetCalcResult{Error: err.Error()}
	}

	switch method {
	case MethodMaxSubnets:
		n, err := parseCount(count)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		res, err := ipcalc.SplitByCount(base, n)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		return &SubnetCalcResult{
			Method:         "Max Subnets",
			Subnets:        subnetRows(res.Subnets),
			BitsBorrowed:   res.BitsBorrowed,
			HostsPerSubnet: res.HostsPerSubnet,
			TotalSubnets:   res.TotalSubnets,
		}
	case MethodMaxHosts:
		n, err := parseCount(count)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		res, err := ipcalc.SplitByHostCapacity(base, n)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		return &SubnetCalcResult{
			Method:         "Max Hosts per Subnet",
			Subnets:        subnetRows(res.Subnets),
			HostsPerSubnet: res.HostsPerSubnet,
			TotalSubnets:   res.TotalSubnets,
		}
	case MethodVLSM:
		hosts, err := parseHostsList(hostsList)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		warning := ""
		if c := strings.TrimSpace(count); c != "" && c != "0" {
			n, err := strconv.Atoi(c)
			if err != nil {
				return &SubnetCalcResult{Error: fmt.Sprintf("invalid subnet count %q", count)}
			}
			if n != len(hosts) {
				// The hosts list is authoritative when the two disagree.
				warning = fmt.Sprintf("subnet count %d ignored: hosts list has %d values", n, len(hosts))
			}
		}
		res, err := ipcalc.AllocateVLSM(base, hosts)
		if err != nil {
			return &SubnetCalcResult{Error: err.Error()}
		}
		rows := make([]SubnetRow, len(res.Subnets))
		for i, s := range res.Subnets {
			rows[i] = newSubnetRow(s.Network, s.Hosts)
			rows[i].HostsRequested = s.HostsRequested
			rows[i].OriginalOrder = s.OriginalPosition + 1
		}
		return &SubnetCalcResult{
			Method:              "VLSM",
			Subnets:             rows,
			TotalHostsRequested: res.TotalHostsRequested,
			TotalHostsAllocated: res.TotalHostsAllocated,
			Warning:             warning,
		}
	default:
		return &SubnetCalcResult{Error: fmt.Sprintf("invalid method %q: use max_subnets, max_hosts_per_subnet, or vlsm", method)}
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// parseHostsList parses a comma-separated list of positive host counts.
func parseHostsList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("vlsm requires a comma-separated hosts list")
	}
	parts := strings.Split(s, ",")
	hosts := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid host count %q in hosts list", strings.TrimSpace(p))
		}
		if n < 1 {
			return nil, fmt.Errorf("host count must be positive, got %d", n)
		}
		hosts = append(hosts, n)
	}
	return hosts, nil
}

func newSubnetRow(n ipcalc.Network, hosts uint64) SubnetRow {
	first, last := n.HostRange()
	return SubnetRow{
		Subnet:    n.String(),
		Network:   n.Addr().String(),
		Broadcast: n.Broadcast().String(),
		FirstHost: first.String(),
		LastHost:  last.String(),
		Hosts:     hosts,
	}
}

func subnetRows(subnets []ipcalc.Subnet) []SubnetRow {
	rows := make([]SubnetRow, len(subnets))
	for i, s := range subnets {
		rows[i] = newSubnetRow(s.Network, s.Hosts)
	}
	return rows
}
