package binseq

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func randQuality(r *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(33 + r.Intn(40)) // Phred+33 range
	}
	return out
}

// Variable-length records with quality scores and a zstd-compressed block
// codec round-trip exactly, and parallel dispatch visits every record.
func TestVbqRoundTripWithQualityAndZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reads.vbq")
	w, err := CreateVbq(path, VbqWriterConfig{
		IncludeQuality: true,
		IncludeNames:   true,
		Codec:          CodecZstd,
		BlockRecords:   64,
	})
	if err != nil {
		t.Fatalf("CreateVbq: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	const total = 500
	seqs := make([][]byte, total)
	quals := make([][]byte, total)
	names := make([][]byte, total)
	for i := 0; i < total; i++ {
		n := 20 + rng.Intn(80)
		seqs[i] = randSeq(rng, n)
		quals[i] = randQuality(rng, n)
		names[i] = []byte("read" + string(rune('0'+i%10)))
		if err := w.Write(uint64(i), seqs[i], nil, quals[i], nil, names[i]); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenVbq(path)
	if err != nil {
		t.Fatalf("OpenVbq: %v", err)
	}
	defer r.Close()

	if r.Len() != total {
		t.Fatalf("Len() = %d, want %d", r.Len(), total)
	}
	if r.Paired() {
		t.Error("Paired() = true, want false")
	}
	if !r.HasQuality() || !r.HasNames() {
		t.Error("expected HasQuality and HasNames to be true")
	}
	if r.NumBlocks() < 2 {
		t.Errorf("NumBlocks() = %d, want at least 2 with BlockRecords=64 and 500 records", r.NumBlocks())
	}

	for i := uint64(0); i < total; i++ {
		rec, err := r.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if string(rec.PrimarySeq()) != string(seqs[i]) {
			t.Fatalf("record %d: PrimarySeq() = %q, want %q", i, rec.PrimarySeq(), seqs[i])
		}
		if string(rec.Quality) != string(quals[i]) {
			t.Fatalf("record %d: Quality = %q, want %q", i, rec.Quality, quals[i])
		}
		if string(rec.Name) != string(names[i]) {
			t.Fatalf("record %d: Name = %q, want %q", i, rec.Name, names[i])
		}
		if rec.Flag != i {
			t.Fatalf("record %d: Flag = %d, want %d", i, rec.Flag, i)
		}
	}

	stats, err := r.ProcessParallel(4, func() Processor { return &countingProcessor{} })
	if err != nil {
		t.Fatalf("ProcessParallel: %v", err)
	}
	if stats.RecordsProcessed != total {
		t.Errorf("RecordsProcessed = %d, want %d", stats.RecordsProcessed, total)
	}
	var sum int
	for _, s := range stats.Summaries {
		sum += s.(int)
	}
	if sum != total {
		t.Errorf("sum of worker summaries = %d, want %d", sum, total)
	}

	if err := r.Validate(); err != nil {
		t.Errorf("Validate(): %v", err)
	}
}

// Paired VBQ records with independent primary/secondary lengths and no
// compression still round-trip, including via the sequential iterator.
func TestVbqPairedUncompressedIterator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paired.vbq")
	w, err := CreateVbq(path, VbqWriterConfig{
		Paired: true,
		Codec:  CodecNone,
	})
	if err != nil {
		t.Fatalf("CreateVbq: %v", err)
	}

	rng := rand.New(rand.NewSource(99))
	const total = 50
	primaries := make([][]byte, total)
	secondaries := make([][]byte, total)
	for i := 0; i < total; i++ {
		primaries[i] = randSeq(rng, 10+i)
		secondaries[i] = randSeq(rng, 5+i)
		if err := w.Write(uint64(i*2), primaries[i], secondaries[i], nil, nil, nil); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenVbq(path)
	if err != nil {
		t.Fatalf("OpenVbq: %v", err)
	}
	defer r.Close()

	it := r.Iter()
	var count int
	for {
		rec, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next(): %v", err)
		}
		if !ok {
			break
		}
		i := int(rec.Index)
		if string(rec.PrimarySeq()) != string(primaries[i]) {
			t.Fatalf("record %d: PrimarySeq() = %q, want %q", i, rec.PrimarySeq(), primaries[i])
		}
		if string(rec.SecondarySeq()) != string(secondaries[i]) {
			t.Fatalf("record %d: SecondarySeq() = %q, want %q", i, rec.SecondarySeq(), secondaries[i])
		}
		if rec.Flag != uint64(i*2) {
			t.Fatalf("record %d: Flag = %d, want %d", i, rec.Flag, i*2)
		}
		count++
	}
	if count != total {
		t.Errorf("iterator visited %d records, want %d", count, total)
	}
}

// A tolerant VBQ writer substitutes U->T and N->A rather than rejecting
// the record, and records the substitution per-record so a reader can
// tell which records were affected.
func TestVbqTolerantWritePreservesWarningFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tolerant.vbq")
	w, err := CreateVbq(path, VbqWriterConfig{
		Paired:   true,
		Tolerant: true,
	})
	if err != nil {
		t.Fatalf("CreateVbq: %v", err)
	}

	// record 0: clean primary, secondary needs a substitution.
	if err := w.Write(0, []byte("ACGT"), []byte("ACGU"), nil, nil, nil); err != nil {
		t.Fatalf("Write(0): %v", err)
	}
	// record 1: both sequences need substitutions.
	if err := w.Write(1, []byte("ANGT"), []byte("NNNN"), nil, nil, nil); err != nil {
		t.Fatalf("Write(1): %v", err)
	}
	// record 2: neither sequence needs a substitution.
	if err := w.Write(2, []byte("ACGT"), []byte("TTTT"), nil, nil, nil); err != nil {
		t.Fatalf("Write(2): %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenVbq(path)
	if err != nil {
		t.Fatalf("OpenVbq: %v", err)
	}
	defer r.Close()

	cases := []struct {
		primaryWarned, secondaryWarned bool
	}{
		{false, true},
		{true, true},
		{false, false},
	}
	for i, want := range cases {
		rec, err := r.Get(uint64(i))
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if rec.PrimaryWarned != want.primaryWarned {
			t.Errorf("record %d: PrimaryWarned = %v, want %v", i, rec.PrimaryWarned, want.primaryWarned)
		}
		if rec.SecondaryWarned != want.secondaryWarned {
			t.Errorf("record %d: SecondaryWarned = %v, want %v", i, rec.SecondaryWarned, want.secondaryWarned)
		}
	}

	rec0, err := r.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if string(rec0.PrimarySeq()) != "ACGT" {
		t.Errorf("record 0: PrimarySeq() = %q, want %q", rec0.PrimarySeq(), "ACGT")
	}
	if string(rec0.SecondarySeq()) != "ACGT" {
		t.Errorf("record 0: SecondarySeq() = %q, want %q (U substituted to T)", rec0.SecondarySeq(), "ACGT")
	}

	rec1, err := r.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if string(rec1.PrimarySeq()) != "AAGT" {
		t.Errorf("record 1: PrimarySeq() = %q, want %q (N substituted to A)", rec1.PrimarySeq(), "AAGT")
	}
	if string(rec1.SecondarySeq()) != "AAAA" {
		t.Errorf("record 1: SecondarySeq() = %q, want %q (N substituted to A)", rec1.SecondarySeq(), "AAAA")
	}
}

// A VBQ writer configured for quality rejects a record whose quality
// length does not match its sequence length.
func TestVbqWriterRejectsQualityLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badqual.vbq")
	w, err := CreateVbq(path, VbqWriterConfig{IncludeQuality: true})
	if err != nil {
		t.Fatalf("CreateVbq: %v", err)
	}
	err = w.Write(0, []byte("ACGT"), nil, []byte("!!!"), nil, nil)
	if err == nil {
		t.Fatal("expected LengthMismatch error")
	}
	binErr, ok := err.(*Error)
	if !ok || binErr.Kind != KindLengthMismatch {
		t.Fatalf("expected LengthMismatch, got %v", err)
	}
}
