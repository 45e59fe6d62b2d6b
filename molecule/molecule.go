// Package molecule packs and unpacks the Molecule containers used by the
// typed witness layout: fixed arrays, fixvec (Bytes), dynvec (BytesVec),
// tables and unions. All header integers are 4-byte little endian.
package molecule

import (
	"encoding/binary"

	typedwitness "github.com/vulcanize/go-codec-typedwitness"
)

// NumberSize is the byte size of a Molecule header number
const NumberSize = 4

// PackUint32 encodes a Uint32 array (4 bytes, little endian)
func PackUint32(v uint32) []byte {
	out := make([]byte, NumberSize)
	binary.LittleEndian.PutUint32(out, v)
	return out
}

// UnpackUint32 decodes a Uint32 array, which must be exactly 4 bytes
func UnpackUint32(data []byte) (uint32, error) {
	if len(data) != NumberSize {
		return 0, typedwitness.Errorf(typedwitness.KindMalformedInput, "Uint32 must be 4 bytes, got %d", len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// PackUint64 encodes a Uint64 array (8 bytes, little endian)
func PackUint64(v uint64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, v)
	return out
}

// UnpackUint64 decodes a Uint64 array, which must be exactly 8 bytes
func UnpackUint64(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, typedwitness.Errorf(typedwitness.KindMalformedInput, "Uint64 must be 8 bytes, got %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// PackArray checks that data is exactly size bytes and returns a copy of it.
// Fixed arrays carry no header.
func PackArray(data []byte, size int) ([]byte, error) {
	if len(data) != size {
		return nil, typedwitness.Errorf(typedwitness.KindValueRange, "expected %d bytes, got %d", size, len(data))
	}
	return append([]byte(nil), data...), nil
}

// UnpackArray checks that data is exactly size bytes
func UnpackArray(data []byte, size int) ([]byte, error) {
	if len(data) != size {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "expected %d byte array, got %d bytes", size, len(data))
	}
	return data, nil
}

// PackFixVec encodes a byte vector: item count then the raw bytes
func PackFixVec(items []byte) []byte {
	out := make([]byte, NumberSize, NumberSize+len(items))
	binary.LittleEndian.PutUint32(out, uint32(len(items)))
	return append(out, items...)
}

// UnpackFixVec decodes a byte vector. The item count must account for
// every remaining byte.
func UnpackFixVec(data []byte) ([]byte, error) {
	if len(data) < NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "fixvec header needs %d bytes, got %d", NumberSize, len(data))
	}
	count := binary.LittleEndian.Uint32(data)
	if uint64(count) != uint64(len(data)-NumberSize) {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "fixvec declares %d items but carries %d bytes", count, len(data)-NumberSize)
	}
	return data[NumberSize:], nil
}

// PackDynVec encodes a vector of variable-size items: total size, one
// offset per item, then the items.
func PackDynVec(items [][]byte) []byte {
	headerSize := NumberSize * (1 + len(items))
	total := headerSize
	for _, item := range items {
		total += len(item)
	}
	out := make([]byte, headerSize, total)
	binary.LittleEndian.PutUint32(out, uint32(total))
	offset := headerSize
	for i, item := range items {
		binary.LittleEndian.PutUint32(out[NumberSize*(i+1):], uint32(offset))
		offset += len(item)
	}
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

// UnpackDynVec decodes a vector of variable-size items
func UnpackDynVec(data []byte) ([][]byte, error) {
	if len(data) < NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "dynvec header needs %d bytes, got %d", NumberSize, len(data))
	}
	total := binary.LittleEndian.Uint32(data)
	if uint64(total) != uint64(len(data)) {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "dynvec declares %d bytes but carries %d", total, len(data))
	}
	if total == NumberSize {
		return [][]byte{}, nil
	}
	if len(data) < 2*NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "dynvec of %d bytes has no offsets", len(data))
	}
	first := binary.LittleEndian.Uint32(data[NumberSize:])
	if first%NumberSize != 0 || first < 2*NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "dynvec first offset %d is invalid", first)
	}
	return splitOffsets(data, int(first/NumberSize)-1)
}

// PackTable encodes a table; the layout is the same as a dynvec over the fields
func PackTable(fields ...[]byte) []byte {
	return PackDynVec(fields)
}

// UnpackTable decodes a table that must declare exactly fieldCount fields
func UnpackTable(data []byte, fieldCount int) ([][]byte, error) {
	if len(data) < NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "table header needs %d bytes, got %d", NumberSize, len(data))
	}
	total := binary.LittleEndian.Uint32(data)
	if uint64(total) != uint64(len(data)) {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "table declares %d bytes but carries %d", total, len(data))
	}
	if fieldCount == 0 {
		if total != NumberSize {
			return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "empty table carries %d bytes", total)
		}
		return [][]byte{}, nil
	}
	if len(data) < 2*NumberSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "table of %d bytes has no offsets", len(data))
	}
	first := binary.LittleEndian.Uint32(data[NumberSize:])
	if first%NumberSize != 0 || int(first/NumberSize)-1 != fieldCount {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "table expected %d fields, header offset is %d", fieldCount, first)
	}
	return splitOffsets(data, fieldCount)
}

// PackStruct encodes a Molecule struct, which is the plain concatenation of
// its fixed-size fields
func PackStruct(fields ...[]byte) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

// UnpackStruct splits a Molecule struct into fields of the given sizes
func UnpackStruct(data []byte, sizes ...int) ([][]byte, error) {
	want := 0
	for _, s := range sizes {
		want += s
	}
	if len(data) != want {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "struct expected %d bytes, got %d", want, len(data))
	}
	out := make([][]byte, len(sizes))
	offset := 0
	for i, s := range sizes {
		out[i] = data[offset : offset+s]
		offset += s
	}
	return out, nil
}

func splitOffsets(data []byte, count int) ([][]byte, error) {
	headerSize := NumberSize * (1 + count)
	if len(data) < headerSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "header of %d items needs %d bytes, got %d", count, headerSize, len(data))
	}
	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = int(binary.LittleEndian.Uint32(data[NumberSize*(i+1):]))
	}
	offsets[count] = len(data)
	if offsets[0] != headerSize {
		return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "first offset %d does not follow a %d byte header", offsets[0], headerSize)
	}
	items := make([][]byte, count)
	for i := 0; i < count; i++ {
		start, end := offsets[i], offsets[i+1]
		if start > end || end > len(data) {
			return nil, typedwitness.Errorf(typedwitness.KindMalformedInput, "item %d has invalid bounds [%d, %d)", i, start, end)
		}
		items[i] = data[start:end]
	}
	return items, nil
}
