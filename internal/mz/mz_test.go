package mz

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildImage assembles a minimal one-page MZ executable: a header area of
// two paragraphs (the 28 fixed header bytes followed by one 4-byte
// relocation entry pointing at the first word of the code image), then
// codeSize bytes of "code" (just a marker pattern here). The page count and
// last-page byte count cover the whole file, header included.
func buildImage(t *testing.T, codeSize int, initialCS, initialIP, initialSS, initialSP uint16) string {
	t.Helper()

	const headerParagraphs = 2
	header := make([]byte, headerParagraphs*16)
	u16 := binary.LittleEndian.PutUint16
	fileSize := len(header) + codeSize
	pageCount := uint16((fileSize + 511) / 512)
	bytesInLastPage := uint16(fileSize % 512)
	u16(header[0:2], 0x5A4D) // "MZ"
	u16(header[2:4], bytesInLastPage)
	u16(header[4:6], pageCount)
	u16(header[6:8], 1) // one relocation entry
	u16(header[8:10], headerParagraphs)
	u16(header[14:16], initialSS)
	u16(header[16:18], initialSP)
	u16(header[20:22], initialIP)
	u16(header[22:24], initialCS)
	u16(header[24:26], headerSize) // relocation table right after the fixed header fields

	u16(header[headerSize:headerSize+2], 0)   // relocation offset 0
	u16(header[headerSize+2:headerSize+4], 0) // segment 0, i.e. "points within the load segment itself"

	code := make([]byte, codeSize)
	u16(code[0:2], 0x1234) // the word the relocation entry will bump

	path := filepath.Join(t.TempDir(), "prog.exe")
	var buf []byte
	buf = append(buf, header...)
	buf = append(buf, code...)
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestLoadPlacesCodeAndAppliesRelocation(t *testing.T) {
	path := buildImage(t, 16, 0x0010, 0x0100, 0x0020, 0x0400)
	ram := make([]byte, 0x20000)

	const loadSegment = 0x1000
	result, err := Load(path, ram, loadSegment)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x0010+loadSegment), result.CS)
	assert.Equal(t, uint16(0x0100), result.IP)
	assert.Equal(t, uint16(0x0020+loadSegment), result.SS)
	assert.Equal(t, uint16(0x0400), result.SP)

	codeAddr := uint32(loadSegment) << 4
	got := binary.LittleEndian.Uint16(ram[codeAddr : codeAddr+2])
	assert.Equal(t, uint16(0x1234)+loadSegment, got)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.exe")
	require.NoError(t, os.WriteFile(path, make([]byte, headerSize), 0o600))

	_, err := Load(path, make([]byte, 0x10000), 0x1000)
	assert.Error(t, err)
}
