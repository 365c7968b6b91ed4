package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// On-disk layout, little-endian:
//
//	magic [4]byte "LRIX"
//	version uint16
//	metric uint16 (1 = squared L2)
//	dim uint32
//	count uint64
//	data [count*dim]float32
//	crc32 uint32 (IEEE, over everything above)
var indexMagic = [4]byte{'L', 'R', 'I', 'X'}

const (
	formatVersion uint16 = 1
	metricL2      uint16 = 1
)

type fileHeader struct {
	Magic   [4]byte
	Version uint16
	Metric  uint16
	Dim     uint32
	Count   uint64
}

// WriteTo encodes the index to w.
func (x *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	crc := crc32.NewIEEE()
	bw := bufio.NewWriter(io.MultiWriter(w, crc))

	header := fileHeader{
		Magic:   indexMagic,
		Version: formatVersion,
		Metric:  metricL2,
		Dim:     uint32(x.dim),
		Count:   uint64(x.Len()),
	}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return 0, fmt.Errorf("failed to write index header: %w", err)
	}

	buf := make([]byte, 4)
	for _, v := range x.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return 0, fmt.Errorf("failed to write index data: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write index data: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, crc.Sum32()); err != nil {
		return 0, fmt.Errorf("failed to write index checksum: %w", err)
	}

	n := int64(binary.Size(header)) + int64(len(x.data))*4 + 4
	return n, nil
}

// ReadFlatIndex decodes an index written by WriteTo.
func ReadFlatIndex(r io.Reader) (*FlatIndex, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	headerSize := binary.Size(fileHeader{})
	if len(raw) < headerSize+4 {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorruptIndex, len(raw))
	}

	body, trailer := raw[:len(raw)-4], raw[len(raw)-4:]
	if got, want := crc32.ChecksumIEEE(body), binary.LittleEndian.Uint32(trailer); got != want {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorruptIndex, got, want)
	}

	var header fileHeader
	if err := binary.Read(bytes.NewReader(body[:headerSize]), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	switch {
	case header.Magic != indexMagic:
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptIndex, header.Magic[:])
	case header.Version != formatVersion:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptIndex, header.Version)
	case header.Metric != metricL2:
		return nil, fmt.Errorf("%w: unsupported metric %d", ErrCorruptIndex, header.Metric)
	case header.Dim == 0:
		return nil, fmt.Errorf("%w: zero dimension", ErrCorruptIndex)
	}

	data := body[headerSize:]
	if uint64(len(data)) != header.Count*uint64(header.Dim)*4 {
		return nil, fmt.Errorf("%w: %d data bytes for %d vectors of dim %d", ErrCorruptIndex, len(data), header.Count, header.Dim)
	}

	x := &FlatIndex{dim: int(header.Dim), data: make([]float32, len(data)/4)}
	for i := range x.data {
		x.data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return x, nil
}
