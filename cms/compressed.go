package cms

import (
	"bytes"
	encasn1 "encoding/asn1"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/notaryproject/cms-go/encoding/asn1"
	"github.com/notaryproject/cms-go/internal/crypto/oid"
	cmsio "github.com/notaryproject/cms-go/internal/io"
	"github.com/notaryproject/cms-go/signature"
)

// CompressedDataParser reads a CompressedData from a stream.
//
//	CompressedData ::= SEQUENCE {
//	  version CMSVersion,
//	  compressionAlgorithm CompressionAlgorithmIdentifier,
//	  encapContentInfo EncapsulatedContentInfo }
//
// Reference: RFC 3274 1.1 Compressed-data Content Type
type CompressedDataParser struct {
	seq       *asn1.Parser
	version   int
	algorithm signature.AlgorithmIdentifier
	encap     *EncapsulatedContentInfoParser
}

// NewCompressedDataParser reads the version and compression algorithm of
// the CompressedData SEQUENCE seq.
func NewCompressedDataParser(seq *asn1.Parser) (*CompressedDataParser, error) {
	version, err := nextField(seq, "CompressedData", "version", asn1.AsInteger)
	if err != nil {
		return nil, err
	}
	n, err := version.Int64()
	if err != nil || n != 0 {
		return nil, fieldError("CompressedData", "version", fmt.Errorf("unsupported version %v", version.BigInt()))
	}

	// the algorithm identifier is decoded on its own so that its parameters
	// keep their encoding
	raw, err := seq.NextRaw()
	if err != nil {
		return nil, fieldError("CompressedData", "compressionAlgorithm", missingErr(err))
	}
	v, err := asn1.UnmarshalWithOptions(raw, seq.Options())
	if err != nil {
		return nil, fieldError("CompressedData", "compressionAlgorithm", err)
	}
	algorithm, _, err := asn1.Coerce(v, signature.AsAlgorithmIdentifier)
	if err != nil {
		return nil, fieldError("CompressedData", "compressionAlgorithm", err)
	}
	return &CompressedDataParser{seq: seq, version: int(n), algorithm: algorithm}, nil
}

// Version returns the syntax version.
func (p *CompressedDataParser) Version() int {
	return p.version
}

// CompressionAlgorithm returns the compression algorithm.
func (p *CompressedDataParser) CompressionAlgorithm() signature.AlgorithmIdentifier {
	return p.algorithm
}

// EncapContentInfo opens the encapsulated compressed content.
func (p *CompressedDataParser) EncapContentInfo() (*EncapsulatedContentInfoParser, error) {
	if p.encap != nil {
		return nil, asn1.ErrExhaustedParser
	}
	seq, err := p.seq.NextSequence()
	if err != nil {
		return nil, fieldError("CompressedData", "encapContentInfo", missingErr(err))
	}
	if p.encap, err = newEncapsulatedContentInfoParser(seq); err != nil {
		return nil, err
	}
	return p.encap, nil
}

// Content returns a reader over the decompressed content. The caller closes
// the reader.
func (p *CompressedDataParser) Content() (io.ReadCloser, error) {
	if !oid.ZlibCompress.Equal(p.algorithm.Algorithm) {
		return nil, ErrUnsupportedCompression
	}
	encap, err := p.EncapContentInfo()
	if err != nil {
		return nil, err
	}
	r, err := encap.Content()
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, SyntaxError{Message: "compressed data has no content"}
	}
	return zlib.NewReader(r)
}

// Compress returns the DER encoded ContentInfo of a CompressedData holding
// content of the given type compressed with zlib.
func Compress(contentType encasn1.ObjectIdentifier, content []byte) ([]byte, error) {
	if contentType == nil {
		contentType = oid.Data
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	algorithm, err := signature.AlgorithmIdentifier{Algorithm: oid.ZlibCompress}.Value()
	if err != nil {
		return nil, err
	}
	encap, err := EncapsulatedContentInfo{ContentType: contentType, Content: buf.Bytes()}.Value()
	if err != nil {
		return nil, err
	}
	contentInfo, err := ContentInfo{
		ContentType: oid.CompressedData,
		Content:     asn1.NewSequence(asn1.NewInt64(0), algorithm, encap),
	}.Value()
	if err != nil {
		return nil, err
	}
	return asn1.Marshal(contentInfo)
}

// Decompress reads the CompressedData ContentInfo in r and returns its
// content type and decompressed content.
func Decompress(r io.Reader, opts asn1.DecodeOptions) (encasn1.ObjectIdentifier, []byte, error) {
	var buf bytes.Buffer
	contentType, err := DecompressTo(&buf, r, opts, 0)
	if err != nil {
		return nil, nil, err
	}
	return contentType, buf.Bytes(), nil
}

// DecompressTo reads the CompressedData ContentInfo in r, writes the
// decompressed content to w and returns its content type. A positive limit
// bounds the decompressed size.
func DecompressTo(w io.Writer, r io.Reader, opts asn1.DecodeOptions, limit int64) (encasn1.ObjectIdentifier, error) {
	info, err := NewContentInfoParser(r, opts)
	if err != nil {
		return nil, err
	}
	compressed, err := info.CompressedData()
	if err != nil {
		return nil, err
	}
	rc, err := compressed.Content()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	if _, err := cmsio.Copy(w, rc, limit); err != nil {
		if errors.Is(err, cmsio.ErrLimitExceeded) {
			return nil, fmt.Errorf("decompressed content larger than %d bytes: %w", limit, err)
		}
		return nil, err
	}
	return compressed.encap.ContentType(), nil
}

func missingErr(err error) error {
	if err == io.EOF {
		return errors.New("missing")
	}
	return err
}
