// SPDX-License-Identifier: MPL-2.0

package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// FeatureExt is the Gherkin feature file extension.
	FeatureExt = ".feature"
	// StoryExt is the JBehave story file extension.
	StoryExt = ".story"
)

// ErrUnsupportedFormat is returned for documents whose extension has no
// registered format.
var ErrUnsupportedFormat = errors.New("unsupported document format")

type (
	// Format parses the content of one kind of document.
	Format interface {
		Parse(r io.Reader) (Parsed, error)
	}

	// Source produces parse results for documents.
	Source interface {
		Parse(id ID) (Parsed, error)
	}

	// Stamp identifies one version of a document on disk.
	Stamp struct {
		Size    int64 `json:"size"`
		ModTime int64 `json:"mod_time"`
	}

	// Store persists parse results across runs, keyed by document and stamp.
	Store interface {
		Get(id ID, stamp Stamp) (Parsed, bool)
		Put(id ID, stamp Stamp, p Parsed)
	}

	// FileParser reads documents from disk and parses them by extension.
	// It is safe for concurrent use when its Store is.
	FileParser struct {
		formats map[string]Format
		store   Store
		logger  *log.Logger
	}

	// ParserOption configures a FileParser.
	ParserOption func(*FileParser)
)

// WithStore enables a persistent parse store.
func WithStore(s Store) ParserOption {
	return func(p *FileParser) {
		p.store = s
	}
}

// WithFormat registers or replaces the format for a file extension.
func WithFormat(ext string, f Format) ParserOption {
	return func(p *FileParser) {
		p.formats[strings.ToLower(ext)] = f
	}
}

// WithParserLogger sets the logger used for parse diagnostics.
func WithParserLogger(l *log.Logger) ParserOption {
	return func(p *FileParser) {
		p.logger = l
	}
}

// NewFileParser returns a parser for Gherkin and JBehave documents.
func NewFileParser(opts ...ParserOption) *FileParser {
	p := &FileParser{
		formats: map[string]Format{
			FeatureExt: GherkinFormat{},
			StoryExt:   StoryFormat{},
		},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supports reports whether id has a registered format.
func (p *FileParser) Supports(id ID) bool {
	_, ok := p.formats[strings.ToLower(id.Ext())]
	return ok
}

// Parse reads and parses the document.
func (p *FileParser) Parse(id ID) (Parsed, error) {
	format, ok := p.formats[strings.ToLower(id.Ext())]
	if !ok {
		return Parsed{}, fmt.Errorf("%s: %w", id, ErrUnsupportedFormat)
	}

	f, err := os.Open(id.Path())
	if err != nil {
		return Parsed{}, err
	}
	defer func() { _ = f.Close() }()

	var stamp Stamp
	if p.store != nil {
		info, statErr := f.Stat()
		if statErr == nil {
			stamp = Stamp{Size: info.Size(), ModTime: info.ModTime().UnixNano()}
			if cached, hit := p.store.Get(id, stamp); hit {
				return cached, nil
			}
		}
	}

	parsed, err := format.Parse(f)
	if err != nil {
		return Parsed{}, fmt.Errorf("parse %s: %w", id, err)
	}
	if p.store != nil && stamp != (Stamp{}) {
		p.store.Put(id, stamp, parsed)
	}
	return parsed, nil
}

// Occurrences implements Parser.
func (p *FileParser) Occurrences(id ID) ([]Occurrence, bool) {
	parsed, err := p.Parse(id)
	if err != nil {
		p.logger.Debug("document unreadable", "document", id, "error", err)
		return nil, false
	}
	return parsed.Occurrences, true
}

// PrimaryHeading implements Parser.
func (p *FileParser) PrimaryHeading(id ID) (string, bool) {
	parsed, err := p.Parse(id)
	if err != nil || parsed.Heading == "" {
		return "", false
	}
	return parsed.Heading, true
}

// RelativePath implements Parser.
func (p *FileParser) RelativePath(id ID, projectRoot string) (string, bool) {
	return RelativeDir(id, projectRoot)
}
