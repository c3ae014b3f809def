package ledger

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
)

func entryKey(tenant string, seq uint64) []byte {
	return []byte(fmt.Sprintf("entry/%s/%020d", tenant, seq))
}

func entryPrefix(tenant string) []byte {
	return []byte(fmt.Sprintf("entry/%s/", tenant))
}

// parseEntrySeq recovers the seq encoded in an entry key, for the case
// where the stored value at that key fails to decode and the seq must
// be read back from the key itself.
func parseEntrySeq(tenant string, key []byte) (uint64, bool) {
	prefix := entryPrefix(tenant)
	if !bytes.HasPrefix(key, prefix) {
		return 0, false
	}
	seq, err := strconv.ParseUint(string(key[len(prefix):]), 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

func tailKey(tenant string) []byte {
	return []byte(fmt.Sprintf("tail/%s", tenant))
}

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func hexDecodeInto(s string, dst []byte) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("ledger: expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
