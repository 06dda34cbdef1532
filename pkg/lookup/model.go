package lookup

// Record is the intelligence the service holds for one IP address.
// A nil Record with a no-data outcome means the service has never seen
// the address, which is itself useful signal.
type Record struct {
	IP        string   `json:"ip,omitempty"`
	Ports     []int    `json:"ports,omitempty"`
	Hostnames []string `json:"hostnames,omitempty"`
	CPEs      []string `json:"cpes,omitempty"`
	Vulns     []string `json:"vulns,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// HasFindings reports whether the record carries anything beyond the
// bare address.
func (r *Record) HasFindings() bool {
	if r == nil {
		return false
	}
	return len(r.Ports) > 0 || len(r.Hostnames) > 0 || len(r.CPEs) > 0 ||
		len(r.Vulns) > 0 || len(r.Tags) > 0
}

// Exposed reports whether the record contains known vulnerabilities.
func (r *Record) Exposed() bool {
	return r != nil && len(r.Vulns) > 0
}
