// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package lang

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ID generation follows vjache-cie/pkg/ingestion/schema.go's idiom:
// sha256 over a delimited tuple of identifying fields, truncated to 16 hex
// characters, prefixed by a short type tag so ids are visually
// distinguishable across entity kinds.

func hashID(prefix string, parts ...string) FunctionID {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte("|"))
		}
		h.Write([]byte(p))
	}
	return FunctionID(prefix + hex.EncodeToString(h.Sum(nil))[:16])
}

// GenerateFunctionID produces a deterministic function id. The signature is
// excluded, as in the teacher: two functions with the same qualified name
// and range are the same entity across re-runs even if return-type text
// differs due to formatting.
func GenerateFunctionID(filePath, qualifiedName string, startLine, endLine int) FunctionID {
	return hashID("fn:", filePath, qualifiedName, fmt.Sprintf("%d-%d", startLine, endLine))
}

// GenerateTypeID produces a deterministic type id.
func GenerateTypeID(filePath, name string, startLine, endLine int) string {
	return string(hashID("typ:", filePath, name, fmt.Sprintf("%d-%d", startLine, endLine)))
}

// GenerateFieldID produces a deterministic field id.
func GenerateFieldID(filePath, ownerType, fieldName string) string {
	return string(hashID("fld:", filePath, ownerType, fieldName))
}

// GenerateImplementsID produces a deterministic implements-edge id.
func GenerateImplementsID(typeName, interfaceName string) string {
	return string(hashID("impl:", typeName, interfaceName))
}

// GenerateImportID produces a deterministic import id.
func GenerateImportID(filePath, importPath string) string {
	return string(hashID("imp:", filePath, importPath))
}

// GenerateDebtItemID produces a deterministic debt-item id.
func GenerateDebtItemID(filePath, qualifiedName, category string, line int) string {
	return string(hashID("debt:", filePath, qualifiedName, category, fmt.Sprintf("%d", line)))
}
