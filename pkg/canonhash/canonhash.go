// Package canonhash computes a stable content digest of any
// JSON-marshalable value, relying on encoding/json's alphabetical map-key
// ordering to make the digest independent of field order.
package canonhash

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"
)

func SumObject(v any) (string, []byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := blake3.Sum256(b)
	return "blake3:" + hex.EncodeToString(sum[:]), b, nil
}
