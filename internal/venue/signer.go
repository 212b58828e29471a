// signer.go defines the external signer collaborator boundary. Credential
// storage and cryptographic signing are explicitly out of scope for this
// module: the connector never touches private key material, it only calls
// out to whatever implements Signer.
package venue

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signer is the opaque external collaborator that turns an unsigned action
// into a signed envelope ready to POST to /exchange. The core does not
// interpret the signature format; actionJSON and the returned envelope are
// both treated as opaque byte payloads.
type Signer interface {
	SignL1Action(ctx context.Context, actionJSON []byte, isMainnet bool) (signedEnvelope []byte, err error)
}

// GenerateCloid derives a deterministic, 0x-prefixed 32-hex-character (128
// bit) client order identifier from clientOrderID when the caller does not
// supply an explicit one. It concatenates two 64-bit FNV-1a hashes, the
// second salted, mirroring the upstream connector's two-hash construction
// but using a stable, documented hash instead of platform-dependent
// std::hash.
func GenerateCloid(clientOrderID string) string {
	h1 := fnv.New64a()
	h1.Write([]byte(clientOrderID))
	sum1 := h1.Sum64()

	h2 := fnv.New64a()
	h2.Write([]byte(clientOrderID + "_salt"))
	sum2 := h2.Sum64()

	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum1 >> (56 - 8*i))
		buf[8+i] = byte(sum2 >> (56 - 8*i))
	}
	return "0x" + common.Bytes2Hex(buf[:])
}

// ValidateCloid reports whether cloid conforms to the venue's 0x-prefixed
// 32-hex-character contract.
func ValidateCloid(cloid string) error {
	raw, err := hexutil.Decode(cloid)
	if err != nil {
		return fmt.Errorf("cloid %q is not valid hex: %w", cloid, err)
	}
	if len(raw) != 16 {
		return fmt.Errorf("cloid %q must decode to 16 bytes (128 bits), got %d", cloid, len(raw))
	}
	return nil
}
