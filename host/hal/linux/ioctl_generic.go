//go:build linux && !(mips || mipsle || mips64 || mips64le || ppc64 || ppc64le)

package linux

// Generic ioctl encoding (x86, arm, arm64, riscv64, loong64, s390x):
//
//	bits 0-7:   command number (nr)
//	bits 8-15:  ioctl type (type)
//	bits 16-29: argument size (size)
//	bits 30-31: direction (dir)
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocSizeBits = 14
	iocDirBits  = 2
)
