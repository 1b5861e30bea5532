package utils

import (
	"fmt"
	"math"

	"go.einride.tech/can"
)

// Encode packs physical signal values into a transmit-ready frame. Missing
// signals take their defaults; every value is clamped to the signal's
// documented range before quantization.
func (m *SignalMap) Encode(frameName string, values map[string]float64) (can.Frame, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return can.Frame{}, err
	}

	var payload uint64
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok {
			v = s.Default
		}
		v = clampSignal(v, s.Min, s.Max)

		raw := int64(math.Round((v - s.Offset) / s.Factor))
		raw = clampRaw(raw, s.BitLength, s.Signed)
		payload = setBits(payload, s.StartBit, s.BitLength, rawToUnsigned(raw, s.BitLength))
	}

	var f can.Frame
	f.ID = fd.ID
	f.Length = uint8(fd.DLC)
	for i := 0; i < fd.DLC; i++ {
		f.Data[i] = byte(payload >> (8 * i))
	}
	return f, nil
}

// Decode unpacks a received frame into physical signal values keyed by
// signal name.
func (m *SignalMap) Decode(frame can.Frame) (map[string]float64, error) {
	fd, err := m.FrameByID(frame.ID)
	if err != nil {
		return nil, err
	}
	if int(frame.Length) < fd.DLC {
		return nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", frame.ID, fd.DLC, frame.Length)
	}

	var payload uint64
	for i := 0; i < fd.DLC; i++ {
		payload |= uint64(frame.Data[i]) << (8 * i)
	}

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		raw := unsignedToRaw(getBits(payload, s.StartBit, s.BitLength), s.BitLength, s.Signed)
		out[s.Name] = float64(raw)*s.Factor + s.Offset
	}
	return out, nil
}

func getBits(payload uint64, startBit, bitLen int) uint64 {
	if bitLen <= 0 || bitLen > 64 {
		return 0
	}
	mask := uint64(1)<<bitLen - 1
	return (payload >> startBit) & mask
}

func setBits(payload uint64, startBit, bitLen int, value uint64) uint64 {
	if bitLen <= 0 || bitLen > 64 {
		return payload
	}
	mask := uint64(1)<<bitLen - 1
	payload &^= mask << startBit
	payload |= (value & mask) << startBit
	return payload
}

func unsignedToRaw(u uint64, bitLen int, signed bool) int64 {
	if !signed {
		return int64(u)
	}
	signBit := uint64(1) << (bitLen - 1)
	if u&signBit == 0 {
		return int64(u)
	}
	fullMask := uint64(1)<<bitLen - 1
	return -int64((^u + 1) & fullMask)
}

func rawToUnsigned(raw int64, bitLen int) uint64 {
	if raw >= 0 {
		return uint64(raw)
	}
	fullMask := uint64(1)<<bitLen - 1
	return (^uint64(-raw) + 1) & fullMask
}

func clampSignal(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	if bitLen <= 0 || bitLen > 63 {
		return raw
	}
	if !signed {
		max := int64(1)<<bitLen - 1
		if raw < 0 {
			return 0
		}
		if raw > max {
			return max
		}
		return raw
	}
	min := -int64(1) << (bitLen - 1)
	max := int64(1)<<(bitLen-1) - 1
	if raw < min {
		return min
	}
	if raw > max {
		return max
	}
	return raw
}
