package twilio

import "encoding/binary"

// mulawDecodeTable is the standard ITU-T G.711 mu-law to linear PCM16
// expansion table, indexed by the raw mu-law byte.
var mulawDecodeTable = func() [256]int16 {
	var table [256]int16
	for i := 0; i < 256; i++ {
		mulaw := ^byte(i)
		sign := mulaw & 0x80
		exponent := (mulaw >> 4) & 0x07
		mantissa := mulaw & 0x0F
		sample := (int32(mantissa) << 3) + 0x84
		sample <<= exponent
		sample -= 0x84
		if sign != 0 {
			sample = -sample
		}
		table[i] = int16(sample)
	}
	return table
}()

// decodeMuLaw expands raw 8-bit mu-law samples into little-endian signed
// 16-bit PCM, matching the byte order the Audio Chunker expects for a
// PCM-16 media encoding.
func decodeMuLaw(mulaw []byte) []byte {
	pcm := make([]byte, len(mulaw)*2)
	for i, b := range mulaw {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(mulawDecodeTable[b]))
	}
	return pcm
}
