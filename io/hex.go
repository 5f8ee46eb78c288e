package io

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Intel HEX record types.
const (
	HEX_DATA            = 0x00
	HEX_EOF             = 0x01
	HEX_SEGMENT_ADDRESS = 0x02
	HEX_SEGMENT_START   = 0x03
	HEX_LINEAR_ADDRESS  = 0x04
	HEX_LINEAR_START    = 0x05
)

const (
	hexMaxImage          = 4 << 20 // bytes
	hexRecordHeaderBytes = 4       // length, address, type
	hexRecordData        = 16      // bytes per written data record
)

// ParseHex reads an Intel HEX image. Gaps between records read as erased
// flash (0xff).
func ParseHex(input io.Reader) (rom *Rom, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	defer func() {
		if err != nil {
			rom = nil
			err = &ErrHexSyntax{LineNo: lineno, Err: err}
		}
	}()

	rom = &Rom{}
	base := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		if line[0] != ':' {
			err = ErrHexStart
			return
		}

		var record []byte
		record, err = hex.DecodeString(line[1:])
		if err != nil {
			return
		}

		if len(record) < hexRecordHeaderBytes+1 || len(record) != hexRecordHeaderBytes+int(record[0])+1 {
			err = ErrHexLength
			return
		}

		var sum uint8
		for _, b := range record {
			sum += b
		}
		if sum != 0 {
			err = ErrHexChecksum
			return
		}

		address := int(record[1])<<8 | int(record[2])
		data := record[hexRecordHeaderBytes : len(record)-1]

		switch record[3] {
		case HEX_DATA:
			if base+address+len(data) > hexMaxImage {
				err = ErrHexSize
				return
			}
			rom.write(base+address, data)
		case HEX_EOF:
			return
		case HEX_SEGMENT_ADDRESS, HEX_LINEAR_ADDRESS:
			if len(data) != 2 {
				err = ErrHexLength
				return
			}
			base = int(data[0])<<8 | int(data[1])
			if record[3] == HEX_SEGMENT_ADDRESS {
				base <<= 4
			} else {
				base <<= 16
			}
		case HEX_SEGMENT_START, HEX_LINEAR_START:
			// Start addresses do not affect the image.
		default:
			err = ErrHexType
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	lineno++
	err = ErrHexEnd
	return
}

// writeRecord emits one record with its checksum.
func writeRecord(output io.Writer, kind uint8, address int, data []byte) (err error) {
	record := []byte{uint8(len(data)), uint8(address >> 8), uint8(address), kind}
	record = append(record, data...)
	var sum uint8
	for _, b := range record {
		sum += b
	}
	record = append(record, -sum)
	_, err = fmt.Fprintf(output, ":%s\n", strings.ToUpper(hex.EncodeToString(record)))
	return
}

// WriteHex writes the image as Intel HEX, using extended linear address
// records above 64KiB.
func (rom *Rom) WriteHex(output io.Writer) (err error) {
	base := 0
	for addr := 0; addr < len(rom.Data); addr += hexRecordData {
		if addr-base > 0xffff {
			base = addr &^ 0xffff
			err = writeRecord(output, HEX_LINEAR_ADDRESS, 0, []byte{uint8(base >> 24), uint8(base >> 16)})
			if err != nil {
				return
			}
		}
		end := min(addr+hexRecordData, len(rom.Data))
		err = writeRecord(output, HEX_DATA, addr-base, rom.Data[addr:end])
		if err != nil {
			return
		}
	}

	err = writeRecord(output, HEX_EOF, 0, nil)
	return
}
