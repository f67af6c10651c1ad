package lcd

import (
	"github.com/panelmon/panelmon/crc"
)

func additiveSum(bs []byte) byte {
	var sum byte
	for _, b := range bs {
		sum += b
	}
	return sum
}

// sealChunk appends the capability checksum to one wire chunk.
func sealChunk(kind ChecksumKind, chunk []byte) []byte {
	switch kind {
	case ChecksumAdditive:
		return append(chunk, additiveSum(chunk))
	case ChecksumCRC8:
		return append(chunk, crc.CRC8_p93_n(0, chunk))
	}
	return chunk
}

// chunkPayload splits a pixel payload into individually checksummed writes
// no larger than the capability max payload.
func chunkPayload(caps *Capability, payload []byte) [][]byte {
	max := caps.MaxPayload
	if max <= 0 {
		max = len(payload)
	}
	out := make([][]byte, 0, (len(payload)+max-1)/max)
	for off := 0; off < len(payload); off += max {
		end := off + max
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[off:end]
		if caps.Checksum != ChecksumNone {
			sealed := make([]byte, 0, len(chunk)+1)
			sealed = append(sealed, chunk...)
			chunk = sealChunk(caps.Checksum, sealed)
		}
		out = append(out, chunk)
	}
	return out
}
