// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xmlcsv streams the records of an XML document into a CSV file.
//
// Every element with the target tag becomes one row. The row holds the
// attributes of the element and of everything nested in it, plus the trimmed
// text of each element, keyed by local name. Later values overwrite earlier
// ones with the same name.
package xmlcsv

import (
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
)

const (
	DefaultChunkSize = 1000
	DefaultDelimiter = ','
)

var (
	ErrNoTag            = errors.New("target tag is required")
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)

// Options configures a Converter.
type Options struct {
	// Tag is the local name of the record elements.
	Tag string
	// Fields restricts the columns. Empty keeps every name found.
	Fields []string
	// ChunkSize is the number of records buffered before they are written.
	ChunkSize int
	// Delimiter separates CSV fields.
	Delimiter rune
	Logger    log.Interface
}

// Converter turns XML records into CSV rows.
type Converter struct {
	tag       string
	fields    map[string]bool
	chunkSize int
	delimiter rune
	log       log.Interface
}

// New validates opts and returns a Converter.
func New(opts Options) (*Converter, error) {
	if opts.Tag == "" {
		return nil, ErrNoTag
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, opts.ChunkSize)
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = DefaultDelimiter
	}
	switch opts.Delimiter {
	case '"', '\r', '\n', 0xFFFD:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDelimiter, opts.Delimiter)
	}
	if opts.Logger == nil {
		opts.Logger = log.Log
	}

	c := &Converter{
		tag:       opts.Tag,
		chunkSize: opts.ChunkSize,
		delimiter: opts.Delimiter,
		log:       opts.Logger,
	}
	if len(opts.Fields) > 0 {
		c.fields = make(map[string]bool, len(opts.Fields))
		for _, f := range opts.Fields {
			c.fields[f] = true
		}
	}
	return c, nil
}

// ConvertFile converts the XML file src and appends the rows to dst.
func (c *Converter) ConvertFile(src, dst string) (int, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return c.Convert(f, dst)
}

// Convert reads XML from r and appends the rows to the CSV file dst, which
// gets a header row only if it did not exist yet. It returns the number of
// records written.
func (c *Converter) Convert(r io.Reader, dst string) (int, error) {
	out := &sink{
		path:      dst,
		delimiter: c.delimiter,
		log:       c.log,
	}
	dec := xml.NewDecoder(r)

	var (
		rec   map[string]string
		texts [][]byte // text of each open element inside a record
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out.written, fmt.Errorf("reading xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(texts) == 0 {
				if t.Name.Local != c.tag {
					continue
				}
				rec = make(map[string]string)
			}
			texts = append(texts, nil)
			for _, a := range t.Attr {
				c.set(rec, a.Name.Local, a.Value)
			}

		case xml.CharData:
			if n := len(texts); n > 0 {
				texts[n-1] = append(texts[n-1], t...)
			}

		case xml.EndElement:
			n := len(texts)
			if n == 0 {
				continue
			}
			if s := strings.TrimSpace(string(texts[n-1])); s != "" {
				c.set(rec, t.Name.Local, s)
			}
			texts = texts[:n-1]

			if len(texts) == 0 {
				out.rows = append(out.rows, rec)
				rec = nil
				if len(out.rows) == c.chunkSize {
					if err := out.flush(); err != nil {
						return out.written, err
					}
				}
			}
		}
	}

	if err := out.flush(); err != nil {
		return out.written, err
	}
	return out.written, nil
}

func (c *Converter) set(rec map[string]string, name, value string) {
	if c.fields != nil && !c.fields[name] {
		return
	}
	rec[name] = value
}

// sink buffers rows and appends them to a CSV file in batches.
type sink struct {
	path      string
	delimiter rune
	log       log.Interface

	header  []string
	rows    []map[string]string
	written int
}

func (s *sink) flush() error {
	if len(s.rows) == 0 {
		return nil
	}
	if s.header == nil {
		s.header = make([]string, 0, len(s.rows[0]))
		for name := range s.rows[0] {
			s.header = append(s.header, name)
		}
		sort.Strings(s.header)
	}

	s.log.WithFields(log.Fields{
		"batch": humanize.Comma(int64(len(s.rows))),
		"total": humanize.Comma(int64(s.written + len(s.rows))),
	}).Info("xmlcsv: writing batch")

	_, statErr := os.Stat(s.path)
	exists := statErr == nil

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = s.delimiter
	if !exists {
		if err := w.Write(s.header); err != nil {
			return err
		}
	}

	record := make([]string, len(s.header))
	for _, row := range s.rows {
		for i, name := range s.header {
			record[i] = row[name]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	s.written += len(s.rows)
	s.rows = s.rows[:0]
	return f.Close()
}
