package ipcalc

import (
	"errors"
	"fmt"
)

// Sentinel errors for specific error handling with errors.Is.
var (
	ErrInvalidAddress   = errors.New("invalid IPv4 address")
	ErrInvalidBinary    = errors.New("invalid binary address")
	ErrInvalidPrefix    = errors.New("invalid prefix length")
	ErrTooManySubnets   = errors.New("too many subnets requested")
	ErrTooManyHosts     = errors.New("too many hosts requested")
	ErrInvalidHostCount = errors.New("host count must be positive")
	ErrAllocationFailed = errors.New("cannot allocate subnet")
)

// AddressError provides detailed address parsing error information.
type AddressError struct {
	Input string
	Err   error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// MaskError provides detailed mask parsing error information.
type MaskError struct {
	Input  string
	Reason string
}

func (e *MaskError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid mask %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid mask %q", e.Input)
}

func (e *MaskError) Unwrap() error {
	return ErrInvalidPrefix
}

// AllocationError reports the VLSM request that could not be placed in the
// remaining free space. Any single unsatisfiable request fails the whole call.
type AllocationError struct {
	Hosts int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("cannot allocate subnet for %d hosts", e.Hosts)
}

func (e *AllocationError) Unwrap() error {
	return ErrAllocationFailed
}
