package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const tagOrientation = 0x0112

var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

// exifTIFFStart scans JPEG segments for the APP1 Exif block and returns the
// offset of its TIFF header.
func exifTIFFStart(data []byte) (int, error) {
	if len(data) < 4 || !bytes.Equal(data[:3], jpegSOI) {
		return -1, fmt.Errorf("not a jpeg")
	}
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA { // start of scan
			break
		}
		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if marker == 0xE1 && i+10 <= len(data) && string(data[i+4:i+10]) == "Exif\x00\x00" {
			return i + 10, nil
		}
		if segLen < 2 {
			i += 2
		} else {
			i += 2 + segLen
		}
	}
	return -1, fmt.Errorf("no exif segment")
}

// jpegOrientation returns the EXIF orientation (1..8) stored in IFD0 of a JPEG.
func jpegOrientation(data []byte) (int, error) {
	start, err := exifTIFFStart(data)
	if err != nil {
		return 0, err
	}
	if start+8 > len(data) {
		return 0, fmt.Errorf("tiff header truncated")
	}
	var order binary.ByteOrder
	switch string(data[start : start+2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, fmt.Errorf("unknown tiff byte order")
	}
	if order.Uint16(data[start+2:start+4]) != 0x002A {
		return 0, fmt.Errorf("invalid tiff magic")
	}
	ifd := start + int(order.Uint32(data[start+4:start+8]))
	if ifd+2 > len(data) {
		return 0, fmt.Errorf("ifd truncated")
	}
	n := int(order.Uint16(data[ifd : ifd+2]))
	for e := 0; e < n; e++ {
		ent := ifd + 2 + e*12
		if ent+12 > len(data) {
			break
		}
		if order.Uint16(data[ent:ent+2]) != tagOrientation {
			continue
		}
		// SHORT, count 1: value lives in the first two bytes of the value field
		o := int(order.Uint16(data[ent+8 : ent+10]))
		if o < 1 || o > 8 {
			return 0, fmt.Errorf("orientation %d out of range", o)
		}
		return o, nil
	}
	return 0, fmt.Errorf("orientation tag not found")
}
