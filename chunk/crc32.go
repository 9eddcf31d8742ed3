package chunk

import "hash/crc32"

var castagnoliCrcTable = crc32.MakeTable(crc32.Castagnoli)

func checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoliCrcTable)
}
