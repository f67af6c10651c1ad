// Package crc implements CRC8 poly93 used by rev-D display frame chunks.
package crc

const CRC8_p93_poly byte = 0x93

var table93 [256]byte

func init() {
	for i := 0; i < 256; i++ {
		table93[i] = CRC8_p93_reference(0, byte(i))
	}
}

// Bit-by-bit reference implementation, kept for tests and table generation.
func CRC8_p93_reference(crc, data byte) byte {
	crc ^= data
	for i := 0; i < 8; i++ {
		if (crc & 0x80) != 0 {
			crc = (crc << 1) ^ CRC8_p93_poly
		} else {
			crc <<= 1
		}
	}
	return crc
}

func CRC8_p93_next(crc, data byte) byte { return table93[crc^data] }

func CRC8_p93_2(b1, b2 byte) byte {
	return CRC8_p93_next(CRC8_p93_next(0, b1), b2)
}

func CRC8_p93_n(crc byte, bs []byte) byte {
	for _, b := range bs {
		crc = CRC8_p93_next(crc, b)
	}
	return crc
}
