package core

// streaming.go builds the byte-to-text reader chain used by the Raw Loader.
//
// e-Stat exports come as UTF-8 (often with a BOM) or Shift_JIS depending on
// the download path. The chain is:
//
//  1. CountingReader: tracks raw bytes for the size limit and diagnostics
//  2. Encoding detection on a peeked sample (EncodingAuto only)
//  3. A golang.org/x/text decoder: UTF-8 with BOM stripping and U+FFFD
//     replacement of invalid sequences, or a Japanese legacy decoder
//
// Use WrapForDecoding to apply all transforms in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// detectSampleSize is how many bytes are inspected to guess the encoding.
const detectSampleSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding guesses the encoding of a delimited text sample.
// A UTF-8 BOM or a sample that is valid UTF-8 means UTF-8; anything else is
// treated as Shift_JIS, the other encoding e-Stat publishes.
// A multi-byte sequence cut off at the end of the sample is ignored.
func DetectEncoding(sample []byte) Encoding {
	if bytes.HasPrefix(sample, utf8BOM) {
		return EncodingUTF8
	}
	if utf8.Valid(trimIncompleteRune(sample)) {
		return EncodingUTF8
	}
	return EncodingShiftJIS
}

// trimIncompleteRune drops a trailing partial UTF-8 sequence, if any.
func trimIncompleteRune(data []byte) []byte {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < 0x80 {
			return data
		}
		if utf8.RuneStart(b) {
			if !utf8.FullRune(data[len(data)-i:]) {
				return data[:len(data)-i]
			}
			return data
		}
	}
	return data
}

// decoderFor returns the transformer turning enc into UTF-8.
func decoderFor(enc Encoding) transform.Transformer {
	switch enc {
	case EncodingShiftJIS:
		return japanese.ShiftJIS.NewDecoder()
	case EncodingEUCJP:
		return japanese.EUCJP.NewDecoder()
	default:
		return unicode.UTF8BOM.NewDecoder()
	}
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForDecoding wraps r so that reads yield UTF-8 text.
// With EncodingAuto the encoding is detected from the first bytes; the
// resolved encoding is returned alongside the reader. The returned
// CountingReader observes the raw (undecoded) bytes.
func WrapForDecoding(r io.Reader, enc Encoding) (io.Reader, *CountingReader, Encoding) {
	counter := NewCountingReader(r)
	buffered := bufio.NewReaderSize(counter, detectSampleSize)

	if enc == EncodingAuto {
		// Peek returns what is available along with io.EOF or
		// bufio.ErrBufferFull; either way the sample is usable.
		sample, _ := buffered.Peek(detectSampleSize)
		enc = DetectEncoding(sample)
	}

	return transform.NewReader(buffered, decoderFor(enc)), counter, enc
}
