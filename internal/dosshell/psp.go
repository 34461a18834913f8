package dosshell

import "encoding/binary"

// PSP field offsets within the 256-byte Program Segment Prefix, matching
// original_source dos.rs's packed ProgramSegmentPrefix layout. Written
// field-by-field per spec.md §9 rather than cast onto a Go struct.
const (
	pspInt20                    = 0x00 // [2]byte
	pspAllocationEnd             = 0x02 // u16
	pspInt21                     = 0x05 // [5]byte
	pspPrevTerminateAddress      = 0x0A // u32
	pspPrevBreakAddress          = 0x0E // u32
	pspPrevCriticalErrorAddress  = 0x12 // u32
	pspParentSegment             = 0x16 // u16
	pspJobFileTable              = 0x18 // [20]byte
	pspEnvironmentSegment        = 0x2C // u16
	pspStackRestoreOffset        = 0x2E // u16
	pspStackRestoreSegment       = 0x30 // u16
	pspJobFileTableSize          = 0x32 // u16
	pspJobFileTablePtr           = 0x34 // u32
	pspPreviousPSP               = 0x38 // u32
	pspDOSVersion                = 0x40 // u16
	pspInt21RetF                 = 0x50 // [3]byte
	pspFCB1Extension             = 0x55 // [7]byte
	pspFCB1                      = 0x5C // [16]byte
	pspFCB2                      = 0x6C // [20]byte
	pspParameterLength           = 0x80 // u8
	pspParameter                 = 0x81 // [127]byte

	pspSize = 0x100
)

// writePSP lays out the PSP at pspSegment:0 the way a DOS loader leaves it
// for the started program, and drops an environment block (PATH/COMSPEC/
// BLASTER plus the program's own quoted path, DOS's convention for passing
// the invoking command line to child processes) at environmentSegment:0.
func writePSP(ram []byte, pspSegment, loadSegment, environmentSegment, parentSegment uint16, dosVersion uint16, guestPath string) {
	base := uint32(pspSegment) << 4
	psp := ram[base : base+pspSize]

	psp[pspInt20+0], psp[pspInt20+1] = 0xCD, 0x20 // INT 20h: terminate
	binary.LittleEndian.PutUint16(psp[pspAllocationEnd:], 0x9FFF)
	psp[pspInt21+0] = 0xEA // far jump stub to the host-intercepted INT21 vector
	binary.LittleEndian.PutUint32(psp[pspPrevTerminateAddress:], 0xF00020C8)
	binary.LittleEndian.PutUint32(psp[pspPrevBreakAddress:], uint32(parentSegment)<<16)
	binary.LittleEndian.PutUint32(psp[pspPrevCriticalErrorAddress:], uint32(parentSegment)<<16|0x0110)
	binary.LittleEndian.PutUint16(psp[pspParentSegment:], parentSegment)
	copy(psp[pspJobFileTable:], []byte{0x01, 0x01, 0x01, 0x00, 0x02, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	binary.LittleEndian.PutUint16(psp[pspEnvironmentSegment:], environmentSegment)
	binary.LittleEndian.PutUint16(psp[pspJobFileTableSize:], 0x14)
	binary.LittleEndian.PutUint32(psp[pspJobFileTablePtr:], uint32(pspSegment)<<16|0x18)
	binary.LittleEndian.PutUint32(psp[pspPreviousPSP:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(psp[pspDOSVersion:], dosVersion)
	psp[pspInt21RetF+0], psp[pspInt21RetF+1], psp[pspInt21RetF+2] = 0xCD, 0x21, 0xCB
	for i := range psp[pspFCB1 : pspFCB1+16] {
		psp[pspFCB1+i] = 0x20
	}
	psp[pspFCB1] = 0x00
	for i := range psp[pspFCB2 : pspFCB2+20] {
		psp[pspFCB2+i] = 0x20
	}
	psp[pspFCB2] = 0x00
	psp[pspParameterLength] = 1
	psp[pspParameter] = 0x0D

	env := "PATH=Z:\\\x00COMSPEC=Z:\\COMMAND.COM\x00BLASTER=A220 I7 D1 H5 T6\x00\x00\x01\x00" + guestPath + "\x00\x00"
	envBase := uint32(environmentSegment) << 4
	copy(ram[envBase:], env)
}
