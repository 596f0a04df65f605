package compression

import (
	"bytes"
	"strings"
	"testing"
)

var sample = []byte(strings.Repeat("typed columns compress well, ", 200))

func TestRoundTripAllAlgorithms(t *testing.T) {
	for _, algorithm := range Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			c, err := New(algorithm)
			if err != nil {
				t.Fatalf("New(%s): %v", algorithm, err)
			}

			compressed, err := c.Compress(sample)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if algorithm != None && len(compressed) >= len(sample) {
				t.Errorf("%s did not shrink repetitive data: %d >= %d",
					algorithm, len(compressed), len(sample))
			}

			decompressed, err := c.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, sample) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	for _, algorithm := range Algorithms {
		t.Run(string(algorithm), func(t *testing.T) {
			c, err := New(algorithm)
			if err != nil {
				t.Fatal(err)
			}

			var compressed bytes.Buffer
			if err := c.CompressStream(&compressed, bytes.NewReader(sample)); err != nil {
				t.Fatalf("CompressStream: %v", err)
			}

			var out bytes.Buffer
			if err := c.DecompressStream(&out, &compressed); err != nil {
				t.Fatalf("DecompressStream: %v", err)
			}
			if !bytes.Equal(out.Bytes(), sample) {
				t.Error("stream round trip mismatch")
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	a, err := ParseAlgorithm("zstd")
	if err != nil || a != Zstd {
		t.Fatalf("ParseAlgorithm(zstd) = %v, %v", a, err)
	}
	if _, err := ParseAlgorithm("brotli"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if _, err := New("bzip2"); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestEmptyInput(t *testing.T) {
	for _, algorithm := range Algorithms {
		c, err := New(algorithm)
		if err != nil {
			t.Fatal(err)
		}
		compressed, err := c.Compress(nil)
		if err != nil {
			t.Fatalf("%s Compress(nil): %v", algorithm, err)
		}
		out, err := c.Decompress(compressed)
		if err != nil {
			t.Fatalf("%s Decompress: %v", algorithm, err)
		}
		if len(out) != 0 {
			t.Errorf("%s: expected empty output", algorithm)
		}
	}
}
