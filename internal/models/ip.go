package models

// IPEntry is one whitelisted address.
type IPEntry struct {
	ID        string `json:"id"`
	IP        string `json:"ip"`
	Label     string `json:"label"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}
