package jsonvalue

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
)

// CanonicalDigest returns a stable digest of v suitable as a map key for
// Distinct(Unordered) and MakeSet, and for the fallback object comparator.
// Object keys are sorted before hashing so two objects with the same
// fields in different insertion order digest identically. Plain
// crypto/sha256 is used rather than a third-party hasher: this is a
// narrow, purely internal canonicalization step with no ecosystem library
// in the pack specializing in it, and the stdlib hash is exactly as fast
// and correct as any alternative here.
func CanonicalDigest(v Value) [32]byte {
	h := sha256.New()
	writeCanonical(h, v)
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func writeCanonical(w io.Writer, v Value) {
	switch v.kind {
	case KindUndefined:
		w.Write([]byte{0x00})
	case KindNull:
		w.Write([]byte{0x01})
	case KindBool:
		if v.b {
			w.Write([]byte{0x02, 0x01})
		} else {
			w.Write([]byte{0x02, 0x00})
		}
	case KindNumber:
		fmt.Fprintf(w, "3:%x", v.n)
	case KindString:
		fmt.Fprintf(w, "4:%s", v.s)
	case KindArray:
		w.Write([]byte{0x05})
		for _, e := range v.arr {
			writeCanonical(w, e)
		}
	case KindObject:
		w.Write([]byte{0x06})
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "k:%s", k)
			writeCanonical(w, v.obj[k])
		}
	}
}
