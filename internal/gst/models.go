package gst

// Validation is the outcome of checking a GSTIN. A registry outage never
// invalidates an ID: FormatValid drives Valid, while APIVerified records
// whether the registry actually confirmed it.
type Validation struct {
	TaxID        string `json:"tax_id"`
	Valid        bool   `json:"valid"`
	FormatValid  bool   `json:"format_valid"`
	APIVerified  bool   `json:"api_verified"`
	BusinessName string `json:"business_name,omitempty"`
	Status       string `json:"status,omitempty"`
}

// RegistryRecord is what the GST registry returns for a registered ID.
type RegistryRecord struct {
	TaxID        string `json:"gstin"`
	BusinessName string `json:"legal_name"`
	TradeName    string `json:"trade_name"`
	Status       string `json:"status"`
}

// Active reports whether the registration is currently in force.
func (r *RegistryRecord) Active() bool {
	return r.Status == "Active"
}
