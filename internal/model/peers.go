package model

import "time"

// PeerRecord maps a ticker to its comparable companies.
// Rows are overwritten wholesale by screening, AI regeneration, or manual POST.
type PeerRecord struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Peers     []string  `json:"peers"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SanitizePeers removes the subject symbol and empty entries from a peer list.
// Self-reference is excluded on write paths rather than by a DB constraint.
func SanitizePeers(symbol string, peers []string) []string {
	out := make([]string, 0, len(peers))
	for _, p := range peers {
		if p == "" || p == symbol {
			continue
		}
		out = append(out, p)
	}
	return out
}
