package util

import (
	"strings"
)

// index/IndexFileNames.java

// SegmentFileName returns name[_suffix][.ext].
func SegmentFileName(name, suffix, ext string) string {
	if len(ext) > 0 || len(suffix) > 0 {
		assert2(!strings.HasPrefix(ext, "."), "extension '%v' must not start with '.'", ext)
		var buffer strings.Builder
		buffer.WriteString(name)
		if len(suffix) > 0 {
			buffer.WriteString("_")
			buffer.WriteString(suffix)
		}
		if len(ext) > 0 {
			buffer.WriteString(".")
			buffer.WriteString(ext)
		}
		return buffer.String()
	}
	return name
}

func indexOfSegmentName(filename string) int {
	if len(filename) == 0 {
		return -1
	}
	// If it is a .del file, there's an '_' after the first character
	if idx := strings.Index(filename[1:], "_"); idx >= 0 {
		return idx + 1
	}
	// If it's not, strip everything that's before the '.'
	return strings.Index(filename, ".")
}

// StripSegmentName returns the part of filename after its segment name.
func StripSegmentName(filename string) string {
	if idx := indexOfSegmentName(filename); idx != -1 {
		return filename[idx:]
	}
	return filename
}

// ParseSegmentName returns the segment name filename belongs to.
func ParseSegmentName(filename string) string {
	if idx := indexOfSegmentName(filename); idx != -1 {
		return filename[0:idx]
	}
	return filename
}

func StripExtension(filename string) string {
	if idx := strings.Index(filename, "."); idx != -1 {
		return filename[0:idx]
	}
	return filename
}
