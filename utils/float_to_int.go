// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 quantizes a normalized sample to signed 16-bit PCM.
//
// The sample is clamped to [-1, 1]. Negative values scale by 32768 and
// non-negative values by 32767 so both ends of the range are reachable
// without overflow. The conversion truncates toward zero. NaN maps to 0.
func Float32ToInt16(x float32) int16 {
	if x != x {
		return 0
	}

	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	if x < 0 {
		return int16(x * 32768.0)
	}

	return int16(x * 32767.0)
}

// Int16ToFloat32 maps a 16-bit PCM sample back to [-1, 1].
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 normalizes an integer PCM sample of the given bit depth.
// Unknown depths are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return float32(v) / 128.0
	case 24:
		return float32(v) / 8388608.0
	case 32:
		return float32(v) / 2147483648.0
	default:
		return float32(v) / 32768.0
	}
}
