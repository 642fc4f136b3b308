package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPlan   = "metacat/plan/v1"
	DomainEntity = "metacat/entity/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint canonically marshals v and hashes it under domain.
// Two values that marshal to the same canonical bytes share a fingerprint.
func Fingerprint(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}

// EntityContentHash identifies the content of an entity independent of its
// GUID, so re-loading an identical fixture can be detected.
func EntityContentHash(e Entity) (string, error) {
	classifications := make([]any, len(e.Classifications))
	for i, c := range e.Classifications {
		classifications[i] = map[string]any{
			"type_name":  c.TypeName,
			"attributes": c.Attributes.canonicalOrEmpty(),
		}
	}
	terms := make([]any, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = t
	}
	return Fingerprint(DomainEntity, map[string]any{
		"type_name":       e.TypeName,
		"attributes":      e.Attributes.canonicalOrEmpty(),
		"classifications": classifications,
		"terms":           terms,
	})
}

// canonicalOrEmpty drops null attribute values, which canonical JSON
// cannot carry.
func (obj IRObject) canonicalOrEmpty() IRObject {
	out := make(IRObject, len(obj))
	for k, v := range obj {
		if _, isNull := v.(IRNull); isNull || v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
