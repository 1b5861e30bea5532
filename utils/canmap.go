package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SignalDef describes one physical signal packed into a CAN frame.
// Only little-endian packing is supported.
type SignalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Default   float64
	Unit      string
}

// FrameDef describes one CAN frame and its signal layout.
type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string // "rx" or "tx" from the daemon's point of view
	CycleMS   int
	Signals   []SignalDef
}

// SignalMap is the bus signal catalogue, loaded from a CSV file. It is
// immutable after loading.
type SignalMap struct {
	byID   map[uint32]*FrameDef
	byName map[string]*FrameDef
}

// FrameByName looks a frame up by its symbolic name.
func (m *SignalMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

// FrameByID looks a frame up by its arbitration ID.
func (m *SignalMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

// FrameNames returns every known frame name, sorted.
func (m *SignalMap) FrameNames() []string {
	out := make([]string, 0, len(m.byName))
	for k := range m.byName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var signalMapColumns = []string{
	"direction", "frame_id", "frame_name", "cycle_ms", "dlc",
	"signal_name", "start_bit", "bit_length", "endianness",
	"signed", "factor", "offset", "min", "max", "default", "unit",
}

// LoadSignalMap reads the signal catalogue from a CSV file, one row per
// signal, rows of the same frame_id grouped into one FrameDef.
func LoadSignalMap(csvPath string) (*SignalMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSignalMap(f)
}

// ParseSignalMap reads the signal catalogue from CSV content.
func ParseSignalMap(r io.Reader) (*SignalMap, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range signalMapColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("signal map missing required column %q", col)
		}
	}

	m := &SignalMap{
		byID:   map[uint32]*FrameDef{},
		byName: map[string]*FrameDef{},
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		field := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }

		frameID, err := parseFrameID(field("frame_id"))
		if err != nil {
			return nil, fmt.Errorf("invalid frame_id %q: %w", field("frame_id"), err)
		}
		frameName := field("frame_name")
		dlc, err := strconv.Atoi(field("dlc"))
		if err != nil || dlc <= 0 || dlc > 8 {
			return nil, fmt.Errorf("frame %s (0x%X): invalid dlc %q", frameName, frameID, field("dlc"))
		}
		cycleMS, _ := strconv.Atoi(field("cycle_ms"))

		sig := SignalDef{
			Name:      field("signal_name"),
			StartBit:  atoiLoose(field("start_bit")),
			BitLength: atoiLoose(field("bit_length")),
			Signed:    parseBool(field("signed")),
			Factor:    atofLoose(field("factor")),
			Offset:    atofLoose(field("offset")),
			Min:       atofLoose(field("min")),
			Max:       atofLoose(field("max")),
			Default:   atofLoose(field("default")),
			Unit:      field("unit"),
		}

		if e := field("endianness"); e != "" && e != "little" {
			return nil, fmt.Errorf("frame %s signal %s: unsupported endianness %q", frameName, sig.Name, e)
		}
		if sig.BitLength <= 0 || sig.BitLength > 64 {
			return nil, fmt.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
		}
		if sig.StartBit < 0 || sig.StartBit+sig.BitLength > dlc*8 {
			return nil, fmt.Errorf("frame %s signal %s: bits [%d,%d) exceed dlc %d",
				frameName, sig.Name, sig.StartBit, sig.StartBit+sig.BitLength, dlc)
		}

		fd, ok := m.byID[frameID]
		if !ok {
			fd = &FrameDef{
				ID:        frameID,
				Name:      frameName,
				DLC:       dlc,
				Direction: field("direction"),
				CycleMS:   cycleMS,
			}
			m.byID[frameID] = fd
			m.byName[frameName] = fd
		}
		if fd.DLC != dlc {
			return nil, fmt.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
		}

		fd.Signals = append(fd.Signals, sig)
	}

	for _, fd := range m.byID {
		sort.Slice(fd.Signals, func(i, j int) bool { return fd.Signals[i].StartBit < fd.Signals[j].StartBit })
	}
	return m, nil
}

func parseFrameID(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	u, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

func atoiLoose(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func atofLoose(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}
