// Package mz loads an MZ-format DOS executable into guest RAM and applies
// its segment relocation table, grounded on original_source dos.rs's
// load_executable and spec.md §6's header field list. Per spec.md §9, the
// on-disk header is read field-by-field with explicit little-endian
// decodes rather than cast onto a Go struct.
package mz

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const headerSize = 28

// Header is the on-disk MZ header, decoded field by field.
type Header struct {
	Magic                  uint16
	BytesInLastPage        uint16
	PageCount              uint16
	RelocationCount        uint16
	CodeOffsetParagraphs   uint16
	MinAllocParagraphs     uint16
	MaxAllocParagraphs     uint16
	InitialSS              uint16
	InitialSP              uint16
	Checksum               uint16
	InitialIP              uint16
	InitialCS              uint16
	RelocationTableOffset  uint16
	Overlay                uint16
}

func parseHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("mz: short header (%d bytes)", len(buf))
	}
	u16 := binary.LittleEndian.Uint16
	h := Header{
		Magic:                 u16(buf[0:2]),
		BytesInLastPage:       u16(buf[2:4]),
		PageCount:             u16(buf[4:6]),
		RelocationCount:       u16(buf[6:8]),
		CodeOffsetParagraphs:  u16(buf[8:10]),
		MinAllocParagraphs:    u16(buf[10:12]),
		MaxAllocParagraphs:    u16(buf[12:14]),
		InitialSS:             u16(buf[14:16]),
		InitialSP:             u16(buf[16:18]),
		Checksum:              u16(buf[18:20]),
		InitialIP:             u16(buf[20:22]),
		InitialCS:             u16(buf[22:24]),
		RelocationTableOffset: u16(buf[24:26]),
		Overlay:               u16(buf[26:28]),
	}
	if h.Magic != 0x5A4D && h.Magic != 0x4D5A { // "MZ" / "ZM", byte order as read
		return Header{}, fmt.Errorf("mz: bad magic %#04x", h.Magic)
	}
	return h, nil
}

// LoadResult is the initial CPU state an MZ image asks to be started with,
// already adjusted for the segment the image was loaded at.
type LoadResult struct {
	CS, IP uint16
	SS, SP uint16
	Header Header
}

// Load reads the MZ executable at path, copies its code/data image into
// ram at loadSegment*16, applies every relocation entry (each a segment:offset
// pointer within the image that itself needs loadSegment added to its
// pointed-to word), and returns the initial register state.
func Load(path string, ram []byte, loadSegment uint16) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("mz: open %s: %w", path, err)
	}
	defer f.Close()

	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return LoadResult{}, fmt.Errorf("mz: read header: %w", err)
	}
	h, err := parseHeader(headerBuf)
	if err != nil {
		return LoadResult{}, err
	}

	codeBegin := int64(h.CodeOffsetParagraphs) * 16
	codeEnd := int64(h.PageCount) * 512
	if h.BytesInLastPage > 0 {
		codeEnd -= 512 - int64(h.BytesInLastPage)
	}
	if codeEnd < codeBegin {
		return LoadResult{}, fmt.Errorf("mz: code_end %d before code_begin %d", codeEnd, codeBegin)
	}

	loadAddress := uint32(loadSegment) << 4
	imageSize := codeEnd - codeBegin
	if loadAddress+uint32(imageSize) > uint32(len(ram)) {
		return LoadResult{}, fmt.Errorf("mz: image of %d bytes does not fit in RAM at %#06x", imageSize, loadAddress)
	}
	if _, err := f.Seek(codeBegin, io.SeekStart); err != nil {
		return LoadResult{}, fmt.Errorf("mz: seek code: %w", err)
	}
	if _, err := io.ReadFull(f, ram[loadAddress:loadAddress+uint32(imageSize)]); err != nil {
		return LoadResult{}, fmt.Errorf("mz: read code: %w", err)
	}

	if _, err := f.Seek(int64(h.RelocationTableOffset), io.SeekStart); err != nil {
		return LoadResult{}, fmt.Errorf("mz: seek relocation table: %w", err)
	}
	entry := make([]byte, 4)
	for i := uint16(0); i < h.RelocationCount; i++ {
		if _, err := io.ReadFull(f, entry); err != nil {
			return LoadResult{}, fmt.Errorf("mz: read relocation %d: %w", i, err)
		}
		offset := binary.LittleEndian.Uint16(entry[0:2])
		segment := binary.LittleEndian.Uint16(entry[2:4])
		address := (uint32(loadSegment+segment) << 4) + uint32(offset)
		if address+2 > uint32(len(ram)) {
			return LoadResult{}, fmt.Errorf("mz: relocation %d out of range", i)
		}
		value := binary.LittleEndian.Uint16(ram[address : address+2])
		binary.LittleEndian.PutUint16(ram[address:address+2], value+loadSegment)
	}

	return LoadResult{
		CS:     h.InitialCS + loadSegment,
		IP:     h.InitialIP,
		SS:     h.InitialSS + loadSegment,
		SP:     h.InitialSP,
		Header: h,
	}, nil
}
