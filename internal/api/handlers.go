package api

import (
	"encoding/json"
	"net/http"

	"ipmentor/internal/tools"
)

// IPInfoRequest is the request body for the ip-info endpoint.
type IPInfoRequest struct {
	Address string `json:"address"`
	Mask    string `json:"mask"`
}

// SubnetCalcRequest is the request body for the subnet-calc endpoint.
type SubnetCalcRequest struct {
	Network string `json:"network"`
	Count   string `json:"count"`
	Method  string `json:"method"`
	Hosts   string `json:"hosts"`
}

// handleIPInfo analyzes one address against one subnet mask.
// POST /api/v1/ip-info
func (s *Server) handleIPInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use POST")
		return
	}

	var req IPInfoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Address == "" {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "address is required", "")
		return
	}
	if req.Mask == "" {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "mask is required", "")
		return
	}

	result := tools.IPInfo(req.Address, req.Mask)
	if result.Error != "" {
		s.metrics.RecordCalc("ip_info", "-", "error")
		s.writeErr(r.Context(), w, http.StatusBadRequest, result.Error, "")
		return
	}

	s.metrics.RecordCalc("ip_info", "-", "ok")
	writeJSON(w, http.StatusOK, result)
}

// handleSubnetCalc partitions a network using one of the three
// calculation methods.
// POST /api/v1/subnet-calc
func (s *Server) handleSubnetCalc(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "use POST")
		return
	}

	var req SubnetCalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Network == "" {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "network is required", "")
		return
	}
	if req.Method == "" {
		s.writeErr(r.Context(), w, http.StatusBadRequest, "method is required",
			"use max_subnets, max_hosts_per_subnet, or vlsm")
		return
	}

	result := tools.SubnetCalculate(req.Network, req.Count, req.Method, req.Hosts)
	if result.Error != "" {
		s.metrics.RecordCalc("subnet_calc", req.Method, "error")
		s.writeErr(r.Context(), w, http.StatusBadRequest, result.Error, "")
		return
	}

	s.metrics.RecordCalc("subnet_calc", req.Method, "ok")
	if result.Warning != "" {
		s.logger.InfoContext(r.Context(), "subnet count overridden by hosts list",
			appendRequestID(r.Context(), []any{"warning", result.Warning})...)
	}
	writeJSON(w, http.StatusOK, result)
}

// engineSelfCheck runs a known calculation and verifies the result.
func engineSelfCheck() bool {
	res := tools.IPInfo("192.0.2.1", "/24")
	return res.Error == "" && res.NetworkAddress == "192.0.2.0" && res.TotalHosts == 254
}
