package protocol

// CRC16/XMODEM parameters.
const (
	// CRC16Polynomial is the CCITT polynomial x^16 + x^12 + x^5 + 1
	CRC16Polynomial = 0x1021

	// CRC16InitialValue is the XMODEM initial register value
	CRC16InitialValue = 0x0000

	// CRC16HighBitMask is the high bit mask for CRC-16 calculations
	CRC16HighBitMask = 0x8000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

// CRC16XMODEM computes the CRC-16/XMODEM checksum of data.
//
// Parameters:
//   - Polynomial: CRC16Polynomial
//   - Initial value: CRC16InitialValue
//   - No input or output reflection, no final XOR
//
// The frame checksum covers the header and payload only, never the length
// prefix or the checksum itself.
func CRC16XMODEM(data []byte) uint16 {
	var crc uint16 = CRC16InitialValue

	for _, b := range data {
		crc ^= uint16(b) << BitsPerByte
		for i := 0; i < BitsPerByte; i++ {
			if crc&CRC16HighBitMask != 0 {
				crc = (crc << 1) ^ CRC16Polynomial
			} else {
				crc = crc << 1
			}
		}
	}

	return crc
}
