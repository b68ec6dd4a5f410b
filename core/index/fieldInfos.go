package index

import (
	"fmt"

	"github.com/balzaczyy/gotis/core/codec"
	"github.com/balzaczyy/gotis/core/store"
	"github.com/balzaczyy/gotis/core/util"
)

// index/FieldInfo.java

// FieldInfo describes how one field is indexed.
type FieldInfo struct {
	Name   string
	Number int
	// Only document numbers are indexed: no term frequencies, positions
	// or payloads.
	OmitPositions bool
	StorePayloads bool
}

func (fi *FieldInfo) update(omitPositions, storePayloads bool) {
	if omitPositions {
		fi.OmitPositions = true
	}
	if storePayloads {
		fi.StorePayloads = true
	}
	if fi.OmitPositions {
		fi.StorePayloads = false
	}
}

func (fi *FieldInfo) String() string {
	return fmt.Sprintf("%v#%v(omitPositions=%v, payloads=%v)",
		fi.Name, fi.Number, fi.OmitPositions, fi.StorePayloads)
}

// index/FieldInfos.java

const (
	FIELD_INFOS_CODEC_NAME      = "FieldInfos"
	FIELD_INFOS_VERSION_START   = 0
	FIELD_INFOS_VERSION_CURRENT = FIELD_INFOS_VERSION_START

	FIELD_OMIT_POSITIONS = byte(0x1)
	FIELD_STORE_PAYLOADS = byte(0x2)
)

// FieldInfos numbers fields in the order they are first added.
type FieldInfos struct {
	byNumber []*FieldInfo
	byName   map[string]*FieldInfo
}

func NewFieldInfos() *FieldInfos {
	return &FieldInfos{byName: make(map[string]*FieldInfo)}
}

/*
Add registers a field, or merges the flags into the existing one. Once
a field omits positions it never stores payloads again.
*/
func (fis *FieldInfos) Add(name string, omitPositions, storePayloads bool) *FieldInfo {
	if fi, ok := fis.byName[name]; ok {
		fi.update(omitPositions, storePayloads)
		return fi
	}
	fi := &FieldInfo{Name: name, Number: len(fis.byNumber)}
	fi.update(omitPositions, storePayloads)
	fis.byNumber = append(fis.byNumber, fi)
	fis.byName[name] = fi
	return fi
}

// FieldNumber returns the number of the named field, or -1.
func (fis *FieldInfos) FieldNumber(name string) int {
	if fi, ok := fis.byName[name]; ok {
		return fi.Number
	}
	return -1
}

// FieldName returns the name of the numbered field, or the empty
// string for -1 and unknown numbers.
func (fis *FieldInfos) FieldName(number int) string {
	if fi := fis.FieldInfo(number); fi != nil {
		return fi.Name
	}
	return ""
}

func (fis *FieldInfos) FieldInfo(number int) *FieldInfo {
	if number < 0 || number >= len(fis.byNumber) {
		return nil
	}
	return fis.byNumber[number]
}

func (fis *FieldInfos) ByName(name string) *FieldInfo {
	return fis.byName[name]
}

func (fis *FieldInfos) Size() int {
	return len(fis.byNumber)
}

func (fis *FieldInfos) String() string {
	return fmt.Sprintf("%v", fis.byNumber)
}

/*
Write stores the field infos as the segment's .fnm file:

	FieldInfos --> Header, FieldsCount, <FieldName, FieldBits>^FieldsCount, Footer
		FieldsCount --> VInt
		FieldName --> String
		FieldBits --> Byte: 0x1 omits positions, 0x2 stores payloads
*/
func (fis *FieldInfos) Write(dir store.Directory, segment string) (err error) {
	fileName := util.SegmentFileName(segment, "", FIELD_INFOS_EXTENSION)
	main, err := dir.CreateOutput(fileName)
	if err != nil {
		return err
	}
	output := store.NewChecksumIndexOutput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, output)
	}()

	if err = codec.WriteHeader(output, FIELD_INFOS_CODEC_NAME, FIELD_INFOS_VERSION_CURRENT); err != nil {
		return err
	}
	if err = output.WriteVInt(int32(len(fis.byNumber))); err != nil {
		return err
	}
	for _, fi := range fis.byNumber {
		var bits byte
		if fi.OmitPositions {
			bits |= FIELD_OMIT_POSITIONS
		}
		if fi.StorePayloads {
			bits |= FIELD_STORE_PAYLOADS
		}
		if err = output.WriteString(fi.Name); err != nil {
			return err
		}
		if err = output.WriteByte(bits); err != nil {
			return err
		}
	}
	return codec.WriteFooter(output)
}

// ReadFieldInfos loads the segment's .fnm file and verifies its footer.
func ReadFieldInfos(dir store.Directory, segment string, bufferSize int) (fis *FieldInfos, err error) {
	fileName := util.SegmentFileName(segment, "", FIELD_INFOS_EXTENSION)
	main, err := dir.OpenInput(fileName, bufferSize)
	if err != nil {
		return nil, err
	}
	input := store.NewBufferedChecksumIndexInput(main)
	defer func() {
		err = util.CloseWhileHandlingError(err, input)
	}()

	if _, err = codec.CheckHeader(input, FIELD_INFOS_CODEC_NAME,
		FIELD_INFOS_VERSION_START, FIELD_INFOS_VERSION_CURRENT); err != nil {
		return nil, err
	}
	size, err := input.ReadVInt()
	if err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: invalid field count %v (resource=%v)", store.ErrCorruptIndex, size, input)
	}
	fis = NewFieldInfos()
	for i := int32(0); i < size; i++ {
		name, err := input.ReadString()
		if err != nil {
			return nil, err
		}
		bits, err := input.ReadByte()
		if err != nil {
			return nil, err
		}
		if _, ok := fis.byName[name]; ok {
			return nil, fmt.Errorf("%w: duplicate field name '%v' (resource=%v)", store.ErrCorruptIndex, name, input)
		}
		fis.Add(name, bits&FIELD_OMIT_POSITIONS != 0, bits&FIELD_STORE_PAYLOADS != 0)
	}
	if _, err = codec.CheckFooter(input); err != nil {
		return nil, err
	}
	return fis, nil
}
