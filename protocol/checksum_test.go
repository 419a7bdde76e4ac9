package protocol

import "testing"

func TestCRC16XMODEM(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: 0x0000,
		},
		{
			name:     "single byte zero",
			data:     []byte{0x00},
			expected: 0x0000,
		},
		{
			name:     "single byte one",
			data:     []byte{0x01},
			expected: 0x1021,
		},
		{
			name:     "check string",
			data:     []byte("123456789"),
			expected: 0x31C3, // catalogue check value for CRC-16/XMODEM
		},
		{
			name:     "test data",
			data:     []byte{0x01, 0x02, 0x03, 0x04},
			expected: 0x0D03,
		},
		{
			name:     "all ones",
			data:     []byte{0xFF, 0xFF, 0xFF, 0xFF},
			expected: 0x99CF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CRC16XMODEM(tt.data)
			if result != tt.expected {
				t.Errorf("CRC16XMODEM() = 0x%04X, want 0x%04X", result, tt.expected)
			}
		})
	}
}

func BenchmarkCRC16XMODEM(b *testing.B) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CRC16XMODEM(data)
	}
}
