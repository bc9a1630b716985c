package sink

import (
	"bufio"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/robotalks/chain.go/pkg/l0/frame"
)

// Format is the archive file format. Formats are never mixed in one file.
type Format int

// Archive formats.
const (
	// FormatBinary stores frames as wire records back to back.
	FormatBinary Format = iota
	// FormatCSV stores one text row per frame.
	FormatCSV
)

// Ext is the file extension of the format.
func (f Format) Ext() string {
	if f == FormatCSV {
		return ".CSV"
	}
	return ".BIN"
}

// ParseFormat parses "binary" or "csv".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "bin", "binary":
		return FormatBinary, nil
	case "csv":
		return FormatCSV, nil
	}
	return FormatBinary, fmt.Errorf("unknown archive format %q", s)
}

// ErrNotOpen indicates no archive file is open.
var ErrNotOpen = errors.New("archive: no open file")

var csvHeader = []string{"checksum", "kind", "status", "sender", "target", "payload"}

// NameSequencer generates file names 0000, 0001 ... FFFF, then wraps to
// 0000, recycling old names.
type NameSequencer struct {
	next uint16
}

// Next returns the next name in the sequence.
func (s *NameSequencer) Next() string {
	name := fmt.Sprintf("%04X", s.next)
	s.next++
	return name
}

// Resume continues after the highest name found in dir for ext.
func (s *NameSequencer) Resume(dir, ext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	found := false
	var max uint16
	for _, entry := range entries {
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if len(base) != 4 {
			continue
		}
		n, err := strconv.ParseUint(base, 16, 16)
		if err != nil {
			continue
		}
		if !found || uint16(n) > max {
			max, found = uint16(n), true
		}
	}
	if found {
		s.next = max + 1
	}
	return nil
}

// Archive writes frames into a sequence of files in Dir.
// At most one file is open at any time.
type Archive struct {
	Dir    string
	Format Format
	// MaxFrames rotates to a new file after so many frames, 0 for no limit.
	MaxFrames int
	// Debug receives error messages, optional.
	Debug io.Writer

	lock   sync.Mutex
	seq    NameSequencer
	file   *os.File
	buf    *bufio.Writer
	csv    *csv.Writer
	frames int
}

// NewArchive creates an Archive, continuing the name sequence of
// files already in dir.
func NewArchive(dir string, format Format) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	a := &Archive{Dir: dir, Format: format}
	if err := a.seq.Resume(dir, format.Ext()); err != nil {
		return nil, err
	}
	return a, nil
}

// Open flushes and closes the current file if any, and opens a file with
// the next name.
func (a *Archive) Open() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.open()
}

// Close flushes and closes the current file.
func (a *Archive) Close() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.close()
}

// FileName returns the path of the open file, empty if none.
func (a *Archive) FileName() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.file == nil {
		return ""
	}
	return a.file.Name()
}

// Consume implements Sink. A file is opened on demand.
func (a *Archive) Consume(f *frame.Frame) error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.file == nil || (a.MaxFrames > 0 && a.frames >= a.MaxFrames) {
		if err := a.open(); err != nil {
			return err
		}
	}
	var err error
	if a.Format == FormatCSV {
		err = a.csv.Write(csvRow(f))
		if err == nil {
			a.csv.Flush()
			err = a.csv.Error()
		}
	} else {
		b := f.RawBytes()
		_, err = a.buf.Write(b[:])
	}
	if err != nil {
		return a.debug(err)
	}
	a.frames++
	return nil
}

// Flush writes buffered frames to the file.
func (a *Archive) Flush() error {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.buf == nil {
		return ErrNotOpen
	}
	return a.buf.Flush()
}

func (a *Archive) open() error {
	if err := a.close(); err != nil && err != ErrNotOpen {
		return err
	}
	name := filepath.Join(a.Dir, a.seq.Next()+a.Format.Ext())
	file, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return a.debug(err)
	}
	a.file, a.buf, a.frames = file, bufio.NewWriter(file), 0
	if a.Format == FormatCSV {
		a.csv = csv.NewWriter(a.buf)
		if err := a.csv.Write(csvHeader); err != nil {
			return a.debug(err)
		}
		a.csv.Flush()
	}
	return nil
}

func (a *Archive) close() error {
	if a.file == nil {
		return ErrNotOpen
	}
	err := a.buf.Flush()
	if cerr := a.file.Close(); err == nil {
		err = cerr
	}
	a.file, a.buf, a.csv = nil, nil, nil
	if err != nil {
		return a.debug(err)
	}
	return nil
}

func (a *Archive) debug(err error) error {
	if a.Debug != nil {
		fmt.Fprintf(a.Debug, "archive: %v\n", err)
	}
	return err
}

func csvRow(f *frame.Frame) []string {
	return []string{
		fmt.Sprintf("%04x", f.Checksum),
		f.Kind.String(),
		strconv.Itoa(int(f.Status)),
		f.Sender.String(),
		f.Target.String(),
		hex.EncodeToString(f.Payload[:]),
	}
}

// ReadBinary reads frames from a binary archive until EOF.
func ReadBinary(r io.Reader, fn func(*frame.Frame) error) error {
	br := bufio.NewReader(r)
	for {
		if _, err := br.Peek(1); err == io.EOF {
			return nil
		}
		f, err := frame.ReadFrame(br)
		if err != nil {
			return err
		}
		if err = fn(f); err != nil {
			return err
		}
	}
}
