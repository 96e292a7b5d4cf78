package compression

import (
	"bytes"
	"testing"
)

func TestCodecsRoundTrip(t *testing.T) {

	input := bytes.Repeat([]byte("column payload "), 512)

	for _, codec := range []Codec{NoneCodec, Lz4Codec, ZstdCodec} {

		compressed, compressErr := Compress(codec, input)
		if compressErr != nil {
			t.Fatalf("%s: unexpected error %v", codec, compressErr)
		}

		if codec != NoneCodec && len(compressed) >= len(input) {
			t.Errorf("%s: expected repetitive input to shrink, got %d bytes from %d", codec, len(compressed), len(input))
		}

		restored, restoreErr := Decompress(codec, compressed, len(input))
		if restoreErr != nil {
			t.Fatalf("%s: unexpected error %v", codec, restoreErr)
		}

		if !bytes.Equal(restored, input) {
			t.Errorf("%s: restored payload differs from input", codec)
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {

	compressed, _ := Compress(Lz4Codec, []byte("abcdef"))

	if _, err := Decompress(Lz4Codec, compressed, 5); err == nil {
		t.Errorf("expected size mismatch error")
	}
}

func TestDecompressGarbage(t *testing.T) {

	if _, err := Decompress(ZstdCodec, []byte{1, 2, 3, 4}, 4); err == nil {
		t.Errorf("expected error for corrupt zstd payload")
	}
}

func TestParseCodec(t *testing.T) {

	for _, codec := range []Codec{NoneCodec, Lz4Codec, ZstdCodec} {
		parsed, err := ParseCodec(codec.String())
		if err != nil || parsed != codec {
			t.Errorf("Expected %s but got %s (%v)", codec, parsed, err)
		}
	}

	if _, err := ParseCodec("brotli"); err == nil {
		t.Errorf("expected error for unsupported codec")
	}
}

func TestDecompressRejectsNegativeSize(t *testing.T) {
	if _, err := Decompress(NoneCodec, []byte{1, 2}, -1); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestDecompressHugeExpectedSize(t *testing.T) {
	compressed, err := Compress(Lz4Codec, []byte("payload"))
	if err != nil {
		t.Fatalf("compress: %s", err)
	}

	if _, err := Decompress(Lz4Codec, compressed, 1<<40); err == nil {
		t.Fatalf("expected size mismatch error")
	}
}
