package models

import "encoding/json"

// ScanReport merges the findings of every static analyzer run on one upload
type ScanReport struct {
	Filename       string          `json:"filename"`
	ScanID         string          `json:"scan_id"`
	BanditResults  json.RawMessage `json:"bandit_results"`
	SemgrepResults json.RawMessage `json:"semgrep_results"`
}
