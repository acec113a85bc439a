// Package upload turns uploaded artifacts into seekable, decompressed byte
// streams for the canonicalizer and comparator.
//
// Compression is detected from magic bytes, never from file names. Compressed
// uploads are inflated into a temporary spool file so that the result can be
// rewound.
package upload

import (
	"bytes"
	"errors"
	"io"
	"os"

	errorsmod "cosmossdk.io/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/paw-chain/qc/qc/types"
)

// Encoding is the framing detected on an upload.
type Encoding string

const (
	EncodingIdentity Encoding = "identity"
	EncodingGzip     Encoding = "gzip"
	EncodingZstd     Encoding = "zstd"
	EncodingLZ4      Encoding = "lz4"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Options tunes decompression.
type Options struct {
	// TempDir holds spool files; empty means os.TempDir.
	TempDir string
	// MaxBytes caps the decompressed size; zero means unlimited. Exceeding it
	// fails with types.ErrUploadTooLarge.
	MaxBytes int64
}

// Stream is a seekable view of an upload's decompressed content. Close
// releases the source and any spool file.
type Stream struct {
	io.ReadSeeker
	Encoding Encoding

	source io.Closer
	spool  *os.File
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	var errs []error
	if s.spool != nil {
		name := s.spool.Name()
		errs = append(errs, s.spool.Close(), os.Remove(name))
		s.spool = nil
	}
	if s.source != nil {
		errs = append(errs, s.source.Close())
		s.source = nil
	}
	return errors.Join(errs...)
}

// Open opens the file at path.
func Open(path string, opts Options) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := Wrap(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// Wrap sniffs rs and returns its decompressed content. If rs implements
// io.Closer, the returned Stream owns it.
func Wrap(rs io.ReadSeeker, opts Options) (*Stream, error) {
	enc, err := Sniff(rs)
	if err != nil {
		return nil, err
	}

	var source io.Closer
	if c, ok := rs.(io.Closer); ok {
		source = c
	}
	if enc == EncodingIdentity {
		return &Stream{ReadSeeker: rs, Encoding: enc, source: source}, nil
	}

	spool, err := inflate(rs, enc, opts)
	if err != nil {
		return nil, err
	}
	return &Stream{ReadSeeker: spool, Encoding: enc, source: source, spool: spool}, nil
}

// Sniff reads the leading magic bytes of rs and rewinds it.
func Sniff(rs io.ReadSeeker) (Encoding, error) {
	head := make([]byte, 4)
	n, err := io.ReadFull(rs, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	head = head[:n]
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return EncodingGzip, nil
	case bytes.HasPrefix(head, magicZstd):
		return EncodingZstd, nil
	case bytes.HasPrefix(head, magicLZ4):
		return EncodingLZ4, nil
	default:
		return EncodingIdentity, nil
	}
}

func inflate(r io.Reader, enc Encoding, opts Options) (_ *os.File, err error) {
	var (
		dec     io.Reader
		cleanup func()
	)
	switch enc {
	case EncodingGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errorsmod.Wrap(err, "open gzip upload")
		}
		dec, cleanup = zr, func() { zr.Close() }
	case EncodingZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errorsmod.Wrap(err, "open zstd upload")
		}
		dec, cleanup = zr, zr.Close
	case EncodingLZ4:
		dec, cleanup = lz4.NewReader(r), func() {}
	}
	defer cleanup()

	spool, err := os.CreateTemp(opts.TempDir, "pawqc-upload-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			spool.Close()
			os.Remove(spool.Name())
		}
	}()

	src := dec
	if opts.MaxBytes > 0 {
		src = io.LimitReader(dec, opts.MaxBytes+1)
	}
	n, err := io.Copy(spool, src)
	if err != nil {
		return nil, errorsmod.Wrapf(err, "decompress %s upload", enc)
	}
	if opts.MaxBytes > 0 && n > opts.MaxBytes {
		return nil, types.ErrUploadTooLarge.Wrapf("limit %d bytes", opts.MaxBytes)
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return spool, nil
}
