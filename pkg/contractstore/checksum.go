package contractstore

import (
	"covenant/pkg/canonhash"
	"covenant/pkg/covenant"
)

// checksum computes a content digest of a contract purely for
// observability: it is logged at debug level alongside every save.
// Nothing in this process reads the logged value back or compares it
// against the document on disk.
func checksum(c *covenant.Contract) string {
	sum, _, err := canonhash.SumObject(c)
	if err != nil {
		return ""
	}
	return sum
}
