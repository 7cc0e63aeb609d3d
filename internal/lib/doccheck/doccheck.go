// Package doccheck scores uploaded verification documents with cheap
// filename and size heuristics. It is a non-authoritative pre-check: it is
// not OCR and it never verifies anything. The authoritative check is manual
// admin review; this score only orders the review queue.
package doccheck

import (
	"path/filepath"
	"strings"
)

// DocumentKind is the declared purpose of an upload.
type DocumentKind string

const (
	KindKbis      DocumentKind = "kbis"
	KindIdentity  DocumentKind = "identity"
	KindInsurance DocumentKind = "insurance"
	KindDecennale DocumentKind = "decennale"
)

// Valid reports whether the kind is one we accept for upload.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindKbis, KindIdentity, KindInsurance, KindDecennale:
		return true
	}
	return false
}

// PreCheck is the heuristic verdict for one upload.
type PreCheck struct {
	Score     int      `json:"score"` // 0-100
	Plausible bool     `json:"plausible"`
	Reasons   []string `json:"reasons"`
}

// plausibleExtensions are formats a scanned official document arrives in.
var plausibleExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// keywordsByKind are filename tokens that suggest the declared kind.
var keywordsByKind = map[DocumentKind][]string{
	KindKbis:      {"kbis", "extrait", "rcs", "greffe"},
	KindIdentity:  {"cni", "identite", "passeport", "carte"},
	KindInsurance: {"assurance", "rc", "responsabilite", "attestation"},
	KindDecennale: {"decennale", "attestation", "garantie"},
}

const (
	minPlausibleSize = 20 * 1024        // below this a scan is unlikely to be readable
	maxPlausibleSize = 20 * 1024 * 1024 // above this it is probably not a document scan
	plausibleCutoff  = 50
)

// Score rates an upload. The result is advisory only.
func Score(kind DocumentKind, filename string, sizeBytes int64) PreCheck {
	var score int
	var reasons []string

	ext := strings.ToLower(filepath.Ext(filename))
	if plausibleExtensions[ext] {
		score += 40
	} else {
		reasons = append(reasons, "unexpected file format "+ext)
	}

	switch {
	case sizeBytes < minPlausibleSize:
		reasons = append(reasons, "file too small for a readable scan")
	case sizeBytes > maxPlausibleSize:
		reasons = append(reasons, "file larger than a typical document scan")
	default:
		score += 30
	}

	lower := strings.ToLower(filename)
	for _, kw := range keywordsByKind[kind] {
		if strings.Contains(lower, kw) {
			score += 30
			break
		}
	}
	if score < 70 && len(keywordsByKind[kind]) > 0 && !containsAny(lower, keywordsByKind[kind]) {
		reasons = append(reasons, "filename does not mention the declared document type")
	}

	return PreCheck{
		Score:     score,
		Plausible: score >= plausibleCutoff,
		Reasons:   reasons,
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
