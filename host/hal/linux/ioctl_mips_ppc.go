//go:build linux && (mips || mipsle || mips64 || mips64le || ppc64 || ppc64le)

package linux

// MIPS and PowerPC ioctl encoding:
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-28: argument size (size)
//	bits 29-31: direction (dir)
const (
	iocNone  = 1
	iocRead  = 2
	iocWrite = 4

	iocSizeBits = 13
	iocDirBits  = 3
)
