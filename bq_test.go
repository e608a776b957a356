package binseq

import (
	"math/rand"
	"path/filepath"
	"testing"
)

func randSeq(r *rand.Rand, n int) []byte {
	alphabet := []byte{'A', 'C', 'G', 'T'}
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return out
}

// An empty BQ file (header only, zero records) round-trips cleanly.
func TestBqEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bq")
	w, err := CreateBq(path, 50, 0)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenBq(path)
	if err != nil {
		t.Fatalf("OpenBq: %v", err)
	}
	defer r.Close()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	it := r.Iter()
	if _, ok, err := it.Next(); ok || err != nil {
		t.Errorf("Iter on empty file: ok=%v err=%v, want false/nil", ok, err)
	}
}

// A single-limb record packs into exactly one 64-bit limb.
func TestBqSingleLimbRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "single.bq")
	w, err := CreateBq(path, 4, 0)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	if err := w.Write(0, []byte("ACGT"), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenBq(path)
	if err != nil {
		t.Fatalf("OpenBq: %v", err)
	}
	defer r.Close()

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	rec, err := r.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if string(rec.PrimarySeq()) != "ACGT" {
		t.Errorf("PrimarySeq() = %q, want ACGT", rec.PrimarySeq())
	}
	if got := byte(bytesToLimbs(rec.Primary)[0] & 0xFF); got != 0xE4 {
		t.Errorf("packed low byte = 0x%02X, want 0xE4", got)
	}
}

// A length that isn't a multiple of 32 still round-trips, with the final
// limb's unused high bits zeroed.
func TestBqNonAlignedLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonaligned.bq")
	w, err := CreateBq(path, 33, 0)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	seq := randSeq(rand.New(rand.NewSource(1)), 33)
	if err := w.Write(7, seq, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenBq(path)
	if err != nil {
		t.Fatalf("OpenBq: %v", err)
	}
	defer r.Close()

	rec, err := r.Get(0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if len(rec.Primary) != 16 { // 2 limbs * 8 bytes
		t.Errorf("len(Primary) = %d, want 16", len(rec.Primary))
	}
	if rec.Flag != 7 {
		t.Errorf("Flag = %d, want 7", rec.Flag)
	}
	if string(rec.PrimarySeq()) != string(seq) {
		t.Errorf("PrimarySeq() = %q, want %q", rec.PrimarySeq(), seq)
	}
	limbs := bytesToLimbs(rec.Primary)
	if err := CheckPadding(limbs, 33); err != nil {
		t.Errorf("CheckPadding: %v", err)
	}
}

// A paired BQ file processed with 4 parallel workers visits every record
// exactly once and each Get matches what was written.
func TestBqPairedParallel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paired.bq")
	w, err := CreateBq(path, 100, 100)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	rng := rand.New(rand.NewSource(42))
	const total = 1000
	primaries := make([][]byte, total)
	secondaries := make([][]byte, total)
	for i := 0; i < total; i++ {
		primaries[i] = randSeq(rng, 100)
		secondaries[i] = randSeq(rng, 100)
		if err := w.Write(uint64(i), primaries[i], secondaries[i]); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenBq(path)
	if err != nil {
		t.Fatalf("OpenBq: %v", err)
	}
	defer r.Close()

	if r.Len() != total {
		t.Fatalf("Len() = %d, want %d", r.Len(), total)
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

	// Sequential reads must match what was written.
	seen := make([]bool, total)
	var mismatches int
	for i := uint64(0); i < total; i++ {
		rec, err := r.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if string(rec.PrimarySeq()) != string(primaries[i]) || string(rec.SecondarySeq()) != string(secondaries[i]) {
			mismatches++
		}
		seen[i] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("record %d never seen", i)
		}
	}
	if mismatches != 0 {
		t.Errorf("%d records mismatched expected sequence content", mismatches)
	}
}

// A rejected write (invalid nucleotide) leaves the file unchanged.
func TestBqWriterRejectsInvalidNucleotide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reject.bq")
	w, err := CreateBq(path, 4, 0)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	err = w.Write(0, []byte("ACGN"), nil)
	if err == nil {
		t.Fatal("expected InvalidNucleotide error")
	}
	binErr, ok := err.(*Error)
	if !ok || binErr.Kind != KindInvalidNucleotide {
		t.Fatalf("expected InvalidNucleotide, got %v", err)
	}
	if binErr.Position != 3 || binErr.Byte != 'N' {
		t.Errorf("Position/Byte = %d/%q, want 3/'N'", binErr.Position, binErr.Byte)
	}
	if w.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after rejected write", w.Count())
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	r, err := OpenBq(path)
	if err != nil {
		t.Fatalf("OpenBq after rejected write: %v", err)
	}
	defer r.Close()
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestBqWriterLengthMismatchRefusesUntilReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mismatch.bq")
	w, err := CreateBq(path, 4, 0)
	if err != nil {
		t.Fatalf("CreateBq: %v", err)
	}
	if err := w.Write(0, []byte("ACG"), nil); err == nil {
		t.Fatal("expected LengthMismatch error")
	}
	if err := w.Write(0, []byte("ACGT"), nil); err == nil {
		t.Fatal("expected writer to still refuse before Reset")
	}
	w.Reset()
	if err := w.Write(0, []byte("ACGT"), nil); err != nil {
		t.Fatalf("Write after Reset: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
}

// countingProcessor is a minimal Processor used across the test suite.
type countingProcessor struct {
	n int
}

func (p *countingProcessor) Process(rec RecordView) error {
	p.n++
	return nil
}

func (p *countingProcessor) Finalize() any {
	return p.n
}
