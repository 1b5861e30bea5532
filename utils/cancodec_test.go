package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapCSV = `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit
rx,0x300,VEHICLE_STATE_1,10,8,vehicle_speed_mps,0,16,little,true,0.01,0,-100,100,0,mps
rx,0x300,VEHICLE_STATE_1,10,8,yaw_rate_radps,16,16,little,true,0.001,0,-10,10,0,radps
tx,0x330,STABILITY_CMD_1,10,5,brake_mult_fl,0,8,little,false,0.004,0,0,1,1,ratio
tx,0x330,STABILITY_CMD_1,10,5,abs_active,32,1,little,false,1,0,0,1,0,-
`

func loadTestMap(t *testing.T) *SignalMap {
	t.Helper()
	m, err := ParseSignalMap(strings.NewReader(testMapCSV))
	require.NoError(t, err)
	return m
}

func TestParseSignalMap(t *testing.T) {
	m := loadTestMap(t)

	fd, err := m.FrameByName("VEHICLE_STATE_1")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x300), fd.ID)
	assert.Equal(t, 8, fd.DLC)
	assert.Equal(t, "rx", fd.Direction)
	assert.Len(t, fd.Signals, 2)

	_, err = m.FrameByName("NO_SUCH_FRAME")
	assert.Error(t, err)

	_, err = m.FrameByID(0x999)
	assert.Error(t, err)
}

func TestParseSignalMapRejectsBadRows(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		_, err := ParseSignalMap(strings.NewReader("direction,frame_id\nrx,0x300\n"))
		assert.Error(t, err)
	})

	t.Run("signal exceeding dlc", func(t *testing.T) {
		csv := `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit
rx,0x300,F,10,2,sig,8,16,little,false,1,0,0,1,0,-
`
		_, err := ParseSignalMap(strings.NewReader(csv))
		assert.Error(t, err)
	})

	t.Run("big endian", func(t *testing.T) {
		csv := `direction,frame_id,frame_name,cycle_ms,dlc,signal_name,start_bit,bit_length,endianness,signed,factor,offset,min,max,default,unit
rx,0x300,F,10,8,sig,0,16,big,false,1,0,0,1,0,-
`
		_, err := ParseSignalMap(strings.NewReader(csv))
		assert.Error(t, err)
	})
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := loadTestMap(t)

	frame, err := m.Encode("VEHICLE_STATE_1", map[string]float64{
		"vehicle_speed_mps": -12.34,
		"yaw_rate_radps":    0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x300), frame.ID)
	assert.Equal(t, uint8(8), frame.Length)

	vals, err := m.Decode(frame)
	require.NoError(t, err)
	assert.InDelta(t, -12.34, vals["vehicle_speed_mps"], 0.01)
	assert.InDelta(t, 0.5, vals["yaw_rate_radps"], 0.001)
}

func TestEncodeClampsAndDefaults(t *testing.T) {
	m := loadTestMap(t)

	// brake_mult_fl out of range is clamped; abs_active falls back to its
	// default of 0.
	frame, err := m.Encode("STABILITY_CMD_1", map[string]float64{
		"brake_mult_fl": 3.5,
	})
	require.NoError(t, err)

	vals, err := m.Decode(frame)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vals["brake_mult_fl"], 0.004)
	assert.Zero(t, vals["abs_active"])
}
