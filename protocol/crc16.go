package protocol

// CRC16 is the frame checksum (CCITT polynomial, reflected, initial
// value 0xFFFF), computed a byte at a time without a table
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}

// appendTrailer writes the big-endian CRC and the sync byte
func appendTrailer(output OutputBuffer, crc uint16) {
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}
