package jam

import (
	"fmt"

	"github.com/minio/highwayhash"
)

// key must stay 32 bytes; changing it invalidates cached units and manifests.
var key = []byte("jamc-translation-unit-hash-key!!")

// Hash returns the highwayhash-64 digest of data.
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// HashHex returns Hash formatted as 16 hex digits.
func HashHex(data []byte) (string, error) {
	sum, err := Hash(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", sum), nil
}
