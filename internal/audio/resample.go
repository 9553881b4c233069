package audio

import "encoding/binary"

// Resample converts mono 16-bit PCM from one sample rate to another with
// linear interpolation. Matching or unknown rates return data unchanged.
func Resample(data []byte, from, to int) []byte {
	if from <= 0 || to <= 0 || from == to || len(data) < 4 {
		return data
	}

	in := len(data) / 2
	out := int(int64(in) * int64(to) / int64(from))
	buf := make([]byte, out*2)

	sample := func(i int) float64 {
		return float64(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}

	for i := range out {
		pos := float64(i) * float64(from) / float64(to)
		j := int(pos)
		frac := pos - float64(j)
		a := sample(min(j, in-1))
		b := sample(min(j+1, in-1))
		v := a + (b-a)*frac
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(int16(v)))
	}
	return buf
}

func monoToStereo(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i+1 < len(data); i += 2 {
		out = append(out, data[i], data[i+1], data[i], data[i+1])
	}
	return out
}
