package audioio

import (
	"encoding/binary"
	"math"
)

// FloatToPCM16 converts float samples in [-1, 1] to signed 16-bit PCM.
// Values outside the range are clipped.
func FloatToPCM16(dst []int16, src []float32) []int16 {
	if cap(dst) < len(src) {
		dst = make([]int16, len(src))
	}
	dst = dst[:len(src)]
	for i, s := range src {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		dst[i] = int16(math.Round(v * 32767))
	}
	return dst
}

// PCM16ToBytesLE converts int16 samples to raw PCM16 little-endian bytes.
func PCM16ToBytesLE(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// PCM16ToBytesBE converts int16 samples to network byte order, as required
// by the L16 RTP payload format.
func PCM16ToBytesBE(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.BigEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// Float32ToBytesLE writes float samples as IEEE-754 little-endian into dst,
// which must hold len(src)*4 bytes. It returns the number of bytes written.
func Float32ToBytesLE(dst []byte, src []float32) int {
	n := len(src)
	if len(dst)/4 < n {
		n = len(dst) / 4
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(src[i]))
	}
	return n * 4
}

// PeakLevel returns the largest absolute sample value.
func PeakLevel(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

// CalculateRMS calculates the root mean square of float samples.
func CalculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
