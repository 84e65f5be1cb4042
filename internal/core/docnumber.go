package core

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"procurecore/pkg/domain"
)

// Generated numbers carry a deterministic prefix by kind plus a random
// hex suffix, matching the shape operators expect from the reference data.
const (
	requisitionNumberPrefix = "PR"
	orderNumberPrefix       = "PO"
)

var materialNumberPrefixes = map[domain.MaterialType]string{
	domain.MaterialTypeRaw:          "RAW",
	domain.MaterialTypeSemifinished: "SEMI",
	domain.MaterialTypeFinished:     "FIN",
	domain.MaterialTypeService:      "SRV",
	domain.MaterialTypeTrading:      "TRD",
}

func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(b[:]))
}

func generateMaterialNumber(t domain.MaterialType) string {
	prefix, ok := materialNumberPrefixes[t]
	if !ok {
		prefix = "MAT"
	}
	return prefix + randomSuffix()
}

func generateDocumentNumber(prefix string) string {
	return prefix + randomSuffix()
}

// validDocumentNumber reports whether a caller-supplied number is
// alphanumeric with optional dashes and no spaces.
func validDocumentNumber(number string) bool {
	if number == "" {
		return false
	}
	for _, r := range number {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
