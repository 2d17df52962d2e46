// Package packerr holds the failure kinds shared by every packing stage.
//
// Each kind maps to a distinct process exit code through Code. Stages wrap
// these values with fmt.Errorf and %w; callers classify with errors.Is and
// errors.As.
package packerr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	ErrAlreadyPacked   = errors.New("file already packed")
	ErrFileTooSmall    = errors.New("the file is smaller than expected")
	ErrFileTooBig      = errors.New("the file is bigger than expected for a PSP file")
	ErrNotELF          = errors.New("no elf found")
	ErrNotPRX          = errors.New("the program was expecting a PRX file")
	ErrNotPBP          = errors.New("the program was expecting a PBP file")
	ErrNoModuleInfo    = errors.New("the elf part of the file does not have a module info section")
	ErrKernelPBP       = errors.New("a kernel PBP is not a valid PSP format")
	ErrMixedPrivileges = errors.New("the file has mixed privileges between the elf and module info data")
	ErrNoSegments      = errors.New("the elf part of the file has no segments or more than four")
	ErrBSSNotFound     = errors.New("the elf part of the file does not have a `.bss` section")
	ErrBadName         = errors.New("section name is not nul-terminated within bounds")
)

// SizeError reports a byte range shorter than the record (or records) it
// was asked to hold.
type SizeError struct {
	InputLen    int
	ExpectedLen int
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("internal type conversion error: input is %d bytes, expected %d", e.InputLen, e.ExpectedLen)
}

// AlignmentError reports a borrowed view requested at an address that is
// not a multiple of the record's alignment.
type AlignmentError struct {
	Align int
	Addr  uintptr
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("internal type conversion error: address %#08x is not %d-byte aligned", e.Addr, e.Align)
}

// Exit codes. 0 is success and 1 covers anything outside the taxonomy.
const (
	CodeOK              = 0
	CodeUnknown         = 1
	CodeIO              = 101
	CodeAlreadyPacked   = 102
	CodeNotPRX          = 103
	CodeNotPBP          = 104
	CodeNotELF          = 105
	CodeNoModuleInfo    = 106
	CodeFileTooBig      = 107
	CodeFileTooSmall    = 108
	CodeKernelPBP       = 109
	CodeMixedPrivileges = 110
	CodeNoSegments      = 111
	CodeBSSNotFound     = 112
	CodeSize            = 113
	CodeAlignment       = 114
	CodeBadName         = 115
)

var sentinelCodes = []struct {
	err  error
	code int
}{
	{ErrAlreadyPacked, CodeAlreadyPacked},
	{ErrNotPRX, CodeNotPRX},
	{ErrNotPBP, CodeNotPBP},
	{ErrNotELF, CodeNotELF},
	{ErrNoModuleInfo, CodeNoModuleInfo},
	{ErrFileTooBig, CodeFileTooBig},
	{ErrFileTooSmall, CodeFileTooSmall},
	{ErrKernelPBP, CodeKernelPBP},
	{ErrMixedPrivileges, CodeMixedPrivileges},
	{ErrNoSegments, CodeNoSegments},
	{ErrBSSNotFound, CodeBSSNotFound},
	{ErrBadName, CodeBadName},
}

// Code returns the exit code for err.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var sizeErr *SizeError
	if errors.As(err, &sizeErr) {
		return CodeSize
	}
	var alignErr *AlignmentError
	if errors.As(err, &alignErr) {
		return CodeAlignment
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return CodeIO
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return CodeIO
	}
	return CodeUnknown
}

// Kind returns a short stable name for err, suitable for structured logs
// and API payloads.
func Kind(err error) string {
	switch Code(err) {
	case CodeOK:
		return ""
	case CodeIO:
		return "io"
	case CodeAlreadyPacked:
		return "already_packed"
	case CodeNotPRX:
		return "not_prx"
	case CodeNotPBP:
		return "not_pbp"
	case CodeNotELF:
		return "not_elf"
	case CodeNoModuleInfo:
		return "no_module_info"
	case CodeFileTooBig:
		return "file_too_big"
	case CodeFileTooSmall:
		return "file_too_small"
	case CodeKernelPBP:
		return "kernel_pbp"
	case CodeMixedPrivileges:
		return "mixed_privileges"
	case CodeNoSegments:
		return "no_segments"
	case CodeBSSNotFound:
		return "bss_not_found"
	case CodeSize:
		return "size_mismatch"
	case CodeAlignment:
		return "alignment"
	case CodeBadName:
		return "bad_name"
	default:
		return "unknown"
	}
}
