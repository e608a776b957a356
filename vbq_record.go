package binseq

// vbqRecordInput is the writer-side, already-packed form of one record
// queued into a block: flag, slen, [xlen if paired], [warn byte if
// tolerant], sequence bits, [quality bytes], [name].
type vbqRecordInput struct {
	Flag             uint64
	PrimaryLimbs     []uint64
	PrimaryLen       uint32
	SecondaryLimbs   []uint64 // nil when unpaired
	SecondaryLen     uint32
	Quality          []byte // nil when header has no quality
	SecondaryQuality []byte
	Name             []byte // nil when header has no names

	// PrimaryWarned/SecondaryWarned record whether PackTolerant had to
	// substitute U->T or N->A for the corresponding sequence. Only
	// meaningful, and only stored on disk, when the writer is tolerant.
	PrimaryWarned   bool
	SecondaryWarned bool
}

// encodedSize returns the number of bytes encodeVbqRecord will append.
func (rec *vbqRecordInput) encodedSize(h vbqHeader) int {
	n := 8 + 4 // flag, slen
	if h.paired() {
		n += 4 // xlen
	}
	if h.tolerant() {
		n++ // warn byte
	}
	n += len(rec.PrimaryLimbs) * 8
	if h.paired() {
		n += len(rec.SecondaryLimbs) * 8
	}
	if h.hasQuality() {
		n += int(rec.PrimaryLen)
		if h.paired() {
			n += int(rec.SecondaryLen)
		}
	}
	if h.hasNames() {
		n += 2 + len(rec.Name)
	}
	return n
}

// encodeVbqRecord appends one record's on-disk bytes to dst, flag-first
// so filters can inspect the flag without decoding sequence data.
func encodeVbqRecord(dst []byte, rec *vbqRecordInput, h vbqHeader) []byte {
	dst = appendLeUint64(dst, rec.Flag)
	dst = appendLeUint32(dst, rec.PrimaryLen)
	if h.paired() {
		dst = appendLeUint32(dst, rec.SecondaryLen)
	}
	if h.tolerant() {
		var warn byte
		if rec.PrimaryWarned {
			warn |= 1 << 0
		}
		if rec.SecondaryWarned {
			warn |= 1 << 1
		}
		dst = append(dst, warn)
	}
	dst = append(dst, limbsToBytes(rec.PrimaryLimbs)...)
	if h.paired() {
		dst = append(dst, limbsToBytes(rec.SecondaryLimbs)...)
	}
	if h.hasQuality() {
		dst = append(dst, rec.Quality...)
		if h.paired() {
			dst = append(dst, rec.SecondaryQuality...)
		}
	}
	if h.hasNames() {
		dst = appendLeUint16(dst, uint16(len(rec.Name)))
		dst = append(dst, rec.Name...)
	}
	return dst
}

// decodeVbqRecord decodes one record starting at payload[off:], returning
// a RecordView whose byte slices alias payload, and the offset of the
// next record. payload is the caller's (per-worker) scratch decompressed
// block buffer.
func decodeVbqRecord(payload []byte, off int, h vbqHeader) (RecordView, int, error) {
	if off+12 > len(payload) {
		return RecordView{}, 0, errCorruptBlock(-1, "truncated record header")
	}
	flag := leUint64(payload[off : off+8])
	off += 8
	slen := leUint32(payload[off : off+4])
	off += 4

	var xlen uint32
	if h.paired() {
		if off+4 > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated xlen")
		}
		xlen = leUint32(payload[off : off+4])
		off += 4
	}

	var primaryWarned, secondaryWarned bool
	if h.tolerant() {
		if off+1 > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated warn byte")
		}
		warn := payload[off]
		primaryWarned = warn&(1<<0) != 0
		secondaryWarned = warn&(1<<1) != 0
		off++
	}

	primaryBytes := int(limbCount(slen)) * 8
	if off+primaryBytes > len(payload) {
		return RecordView{}, 0, errCorruptBlock(-1, "truncated primary sequence")
	}
	primary := payload[off : off+primaryBytes]
	off += primaryBytes

	var secondary []byte
	if h.paired() {
		secondaryBytes := int(limbCount(xlen)) * 8
		if off+secondaryBytes > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated secondary sequence")
		}
		secondary = payload[off : off+secondaryBytes]
		off += secondaryBytes
	}

	var quality, secondaryQuality []byte
	if h.hasQuality() {
		if off+int(slen) > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated quality")
		}
		quality = payload[off : off+int(slen)]
		off += int(slen)
		if h.paired() {
			if off+int(xlen) > len(payload) {
				return RecordView{}, 0, errCorruptBlock(-1, "truncated secondary quality")
			}
			secondaryQuality = payload[off : off+int(xlen)]
			off += int(xlen)
		}
	}

	var name []byte
	if h.hasNames() {
		if off+2 > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated name length")
		}
		nameLen := int(leUint16(payload[off : off+2]))
		off += 2
		if off+nameLen > len(payload) {
			return RecordView{}, 0, errCorruptBlock(-1, "truncated name")
		}
		name = payload[off : off+nameLen]
		off += nameLen
	}

	return RecordView{
		Flag:             flag,
		PrimaryLen:       slen,
		Primary:          primary,
		SecondaryLen:     xlen,
		Secondary:        secondary,
		Quality:          quality,
		SecondaryQuality: secondaryQuality,
		Name:             name,
		PrimaryWarned:    primaryWarned,
		SecondaryWarned:  secondaryWarned,
	}, off, nil
}

func appendLeUint64(dst []byte, v uint64) []byte {
	var b [8]byte
	putLeUint64(b[:], v)
	return append(dst, b[:]...)
}

func appendLeUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	putLeUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendLeUint16(dst []byte, v uint16) []byte {
	var b [2]byte
	putLeUint16(b[:], v)
	return append(dst, b[:]...)
}
