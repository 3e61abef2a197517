package indexer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// nodeIDLen is the hex length the digest is truncated to. The id is an
// identity key, not a security token, so a short prefix is enough.
const nodeIDLen = 16

// NodeID computes the deterministic node identifier for a symbol: the
// truncated hex SHA1 digest of "service:file_path:symbol_name:start_line".
func NodeID(service, filePath, symbolName string, startLine int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s:%s:%s:%d", service, filePath, symbolName, startLine)))
	return hex.EncodeToString(h[:])[:nodeIDLen]
}
