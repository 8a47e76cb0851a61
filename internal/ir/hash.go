package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content hashes. The version suffix allows the hashed
// layout to change later without colliding with stored values.
const (
	DomainUnit = "idlbind/unit/v1"
	DomainTree = "idlbind/tree/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// UnitHash identifies the content of one emitted unit. The path is part of the
// hash so identical bodies at different locations stay distinct.
func UnitHash(path string, content []byte) string {
	data := make([]byte, 0, len(path)+1+len(content))
	data = append(data, path...)
	data = append(data, 0x00)
	data = append(data, content...)
	return hashWithDomain(DomainUnit, data)
}

// TreeHash identifies a tree document by its raw bytes.
func TreeHash(source []byte) string {
	return hashWithDomain(DomainTree, source)
}
