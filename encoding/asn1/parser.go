package asn1

import (
	"errors"
	"fmt"
	"io"
)

// Parser reads the elements of a constructed value one at a time from a
// forward-only byte source, without materializing the enclosing structure.
//
// A parser returned by NewParser walks the top-level values of its source.
// Parsers for nested values are opened with NextSequence, NextSet and
// NextConstructed; they read a bounded sub-range of their parent, and the
// parent resumes after the remainder of the child once it is read again.
//
// A Parser is not safe for concurrent use, and sibling parsers over the same
// source must not be interleaved.
type Parser struct {
	r          ValueReader
	opts       DecodeOptions
	tag        Tag
	depth      int
	indefinite bool

	pending *header
	child   drainer
	atEnd   bool
	done    bool
}

// header holds the identifier and length of an element whose content has
// not been read yet.
type header struct {
	tag    Tag
	length int
	raw    []byte
}

// drainer is an open view into the parent stream that must be consumed
// before the parent can move on.
type drainer interface {
	drain() error
}

// NewParser returns a parser over the values in r.
func NewParser(r io.Reader, opts DecodeOptions) *Parser {
	return &Parser{r: NewValueReader(r), opts: opts}
}

// Tag returns the tag of the value the parser walks. It is the zero Tag for
// a parser returned by NewParser.
func (p *Parser) Tag() Tag { return p.tag }

// Options returns the decoding options of the parser.
func (p *Parser) Options() DecodeOptions { return p.opts }

func (p *Parser) structure() string {
	if p.depth == 0 {
		return ""
	}
	return p.tag.String()
}

func readHeader(r ValueReader, strict bool) (*header, error) {
	rr := &recordingReader{r: r}
	tag, _, err := ReadTag(rr, strict)
	if err != nil {
		return nil, err
	}
	length, _, err := ReadLength(rr, strict)
	if err != nil {
		return nil, err
	}
	return &header{tag: tag, length: length, raw: rr.buf}, nil
}

func (h *header) endOfContents() bool {
	return h.tag.Class == ClassUniversal && h.tag.Number == TagEndOfContents
}

// peek reads the header of the next element, keeping it pending. It
// returns io.EOF at the end of the parser's range.
func (p *Parser) peek() (*header, error) {
	if p.done {
		return nil, ErrExhaustedParser
	}
	if p.pending != nil {
		return p.pending, nil
	}
	if p.atEnd {
		return nil, io.EOF
	}
	if err := p.drainChild(); err != nil {
		return nil, err
	}

	h, err := readHeader(p.r, p.opts.Strict)
	if err != nil {
		if err == io.EOF {
			if p.indefinite {
				return nil, ErrEarlyEOF
			}
			p.atEnd = true
		}
		return nil, err
	}
	if h.endOfContents() {
		if !p.indefinite || h.tag.Constructed || h.length != 0 {
			return nil, malformed(MalformedTag, "unexpected end-of-contents")
		}
		p.atEnd = true
		return nil, io.EOF
	}
	if h.length == IndefiniteLength && !h.tag.Constructed {
		return nil, malformed(MalformedLength, "indefinite length on primitive value")
	}
	if left := remaining(p.r); h.length > 0 && left >= 0 && int64(h.length) > left {
		return nil, ErrEarlyEOF
	}
	p.pending = h
	return h, nil
}

// take consumes the pending header. At the end of the range it reports
// io.EOF once; reads after that fail with ErrExhaustedParser.
func (p *Parser) take() (*header, error) {
	h, err := p.peek()
	if err != nil {
		if err == io.EOF {
			p.done = true
		}
		return nil, err
	}
	p.pending = nil
	return h, nil
}

// expect consumes the next header, which must carry the wanted tag.
func (p *Parser) expect(want Tag) (*header, error) {
	h, err := p.peek()
	if err != nil {
		if err == io.EOF {
			return nil, &SchemaViolationError{
				Structure: p.structure(),
				Detail:    fmt.Errorf("missing %s", want),
			}
		}
		return nil, err
	}
	if !h.tag.Is(want) {
		return nil, &SchemaViolationError{
			Structure: p.structure(),
			Detail:    fmt.Errorf("expected %s, found %s", want, h.tag),
		}
	}
	p.pending = nil
	return h, nil
}

func (p *Parser) drainChild() error {
	if p.child == nil {
		return nil
	}
	err := p.child.drain()
	p.child = nil
	return err
}

// PeekTag returns the tag of the next element without consuming it, or
// io.EOF at the end of the range.
func (p *Parser) PeekTag() (Tag, error) {
	h, err := p.peek()
	if err != nil {
		return Tag{}, err
	}
	return h.tag, nil
}

// Next decodes and returns the next element. At the end of the range it
// returns io.EOF once; further calls fail with ErrExhaustedParser.
func (p *Parser) Next() (Value, error) {
	raw, err := p.NextRaw()
	if err != nil {
		return nil, err
	}
	return UnmarshalWithOptions(raw, p.opts)
}

// NextRaw returns the complete encoding of the next element as found in the
// source, without interpreting it.
func (p *Parser) NextRaw() ([]byte, error) {
	h, err := p.take()
	if err != nil {
		return nil, err
	}
	return p.rest(h)
}

// Skip consumes the next element without decoding it.
func (p *Parser) Skip() error {
	h, err := p.take()
	if err != nil {
		return err
	}
	return p.skipContent(h)
}

// NextSequence opens the next element, which must be a SEQUENCE.
func (p *Parser) NextSequence() (*Parser, error) {
	return p.NextConstructed(Universal(TagSequence))
}

// NextSet opens the next element, which must be a SET.
func (p *Parser) NextSet() (*Parser, error) {
	return p.NextConstructed(Universal(TagSet))
}

// NextConstructed opens the next element, which must be a constructed value
// with the class and number of tag. For an explicitly tagged element the
// returned parser yields the single inner value.
func (p *Parser) NextConstructed(tag Tag) (*Parser, error) {
	h, err := p.expect(tag)
	if err != nil {
		return nil, err
	}
	return p.open(h)
}

// NextOctetString returns a reader over the octets of the next element,
// which must be an OCTET STRING. In BER the octets may be split over
// several segments of a constructed encoding; they are streamed in order.
func (p *Parser) NextOctetString() (io.Reader, error) {
	return p.NextOctets(Universal(TagOctetString))
}

// NextOctets is like NextOctetString for an OCTET STRING implicitly tagged
// with tag.
func (p *Parser) NextOctets(tag Tag) (io.Reader, error) {
	h, err := p.expect(tag)
	if err != nil {
		return nil, err
	}
	if !h.tag.Constructed {
		cr := &contentReader{r: limit(p.r, int64(h.length))}
		p.child = cr
		return cr, nil
	}
	if p.opts.Strict {
		return nil, ErrExpectPrimitive
	}
	segments, err := p.open(h)
	if err != nil {
		return nil, err
	}
	s := &octetStream{segments: segments}
	p.child = s
	return s, nil
}

// Finish checks that no elements are left. It returns a
// *SchemaViolationError naming the first unexpected element otherwise.
func (p *Parser) Finish() error {
	if p.done {
		return nil
	}
	h, err := p.peek()
	if err == io.EOF {
		p.done = true
		return nil
	}
	if err != nil {
		return err
	}
	return &SchemaViolationError{
		Structure: p.structure(),
		Detail:    fmt.Errorf("unexpected %s", h.tag),
	}
}

// open returns a parser over the content of the constructed element h.
func (p *Parser) open(h *header) (*Parser, error) {
	if !h.tag.Constructed {
		return nil, ErrExpectConstructed
	}
	if p.depth+1 > p.opts.maxDepth() {
		return nil, ErrTooDeep
	}
	child := &Parser{
		opts:  p.opts,
		tag:   h.tag,
		depth: p.depth + 1,
	}
	if h.length == IndefiniteLength {
		child.r = p.r
		child.indefinite = true
	} else {
		child.r = limit(p.r, int64(h.length))
	}
	p.child = child
	return child, nil
}

// rest reads the content of h and returns the complete element encoding.
func (p *Parser) rest(h *header) ([]byte, error) {
	raw := append([]byte(nil), h.raw...)
	if h.length == IndefiniteLength {
		rr := &recordingReader{r: p.r}
		if err := skipElements(rr, p.opts, p.depth+1); err != nil {
			return nil, err
		}
		return append(raw, rr.buf...), nil
	}
	content := make([]byte, h.length)
	if _, err := io.ReadFull(p.r, content); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrEarlyEOF
		}
		return nil, err
	}
	return append(raw, content...), nil
}

func (p *Parser) skipContent(h *header) error {
	if h.length == IndefiniteLength {
		return skipElements(p.r, p.opts, p.depth+1)
	}
	return discard(p.r, h.length)
}

// skipElements skips values up to and including an end-of-contents marker.
func skipElements(r ValueReader, opts DecodeOptions, depth int) error {
	for {
		eoc, err := skipElement(r, opts, depth)
		if err != nil {
			return err
		}
		if eoc {
			return nil
		}
	}
}

// drain consumes whatever is left of the parser's range.
func (p *Parser) drain() error {
	if err := p.drainChild(); err != nil {
		return err
	}
	if p.pending != nil {
		h := p.pending
		p.pending = nil
		if err := p.skipContent(h); err != nil {
			return err
		}
	}
	if p.atEnd || p.done {
		return nil
	}
	p.atEnd = true
	if p.indefinite {
		return skipElements(p.r, p.opts, p.depth)
	}
	if left := remaining(p.r); left > 0 {
		return discard(p.r, int(left))
	}
	return nil
}

// contentReader reads the content octets of a primitive element.
type contentReader struct {
	r *limitedValueReader
}

func (c *contentReader) Read(b []byte) (int, error) {
	if c.r.N <= 0 {
		return 0, io.EOF
	}
	n, err := c.r.Read(b)
	if err == io.EOF && c.r.N > 0 {
		return n, ErrEarlyEOF
	}
	return n, err
}

func (c *contentReader) drain() error {
	return discard(c.r, int(c.r.N))
}

// octetStream reads the segments of a constructed OCTET STRING in order.
type octetStream struct {
	segments *Parser
	current  io.Reader
	eof      bool
}

func (s *octetStream) Read(b []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}
	for {
		if s.current != nil {
			n, err := s.current.Read(b)
			if err == io.EOF {
				s.current = nil
				if n > 0 {
					return n, nil
				}
				continue
			}
			return n, err
		}
		h, err := s.segments.take()
		if err != nil {
			if err == io.EOF {
				s.eof = true
			}
			return 0, err
		}
		if !h.tag.Is(Universal(TagOctetString)) {
			return 0, malformed(MalformedContent, "%s segment in constructed OCTET STRING", h.tag)
		}
		if h.tag.Constructed {
			nested, err := s.segments.open(h)
			if err != nil {
				return 0, err
			}
			s.current = &octetStream{segments: nested}
			continue
		}
		cr := &contentReader{r: limit(s.segments.r, int64(h.length))}
		s.segments.child = cr
		s.current = cr
	}
}

func (s *octetStream) drain() error {
	_, err := io.Copy(io.Discard, s)
	return err
}
