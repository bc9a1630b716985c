package frame

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/sigurn/crc16"
)

// PayloadLen is the fixed length of the application payload.
const PayloadLen = 16

// Size is the number of bytes of an encoded frame.
const Size = 2 + 1 + 1 + 2*IDLen + PayloadLen

const (
	offKind    = 2
	offStatus  = 3
	offSender  = 4
	offTarget  = offSender + IDLen
	offPayload = offTarget + IDLen
)

// Kind is the frame type.
type Kind byte

// Frame kinds.
const (
	// KindScan discovers devices. Unaddressed probes travel the whole chain.
	KindScan Kind = 0x01
	// KindData carries application payload between known devices.
	KindData Kind = 0x02
)

// IsValid checks if the kind is defined.
func (k Kind) IsValid() bool {
	return k == KindScan || k == KindData
}

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "SCAN"
	case KindData:
		return "DATA"
	}
	return fmt.Sprintf("KIND(0x%02x)", byte(k))
}

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Frame is a decoded fixed-size record.
type Frame struct {
	Checksum uint16
	Kind     Kind
	Status   byte
	Sender   ID
	Target   ID
	Payload  [PayloadLen]byte
}

// SwapIDs exchanges Sender and Target. Calling it twice is a no-op.
func (f *Frame) SwapIDs() {
	f.Sender, f.Target = f.Target, f.Sender
}

// Sum calculates the checksum of the frame content.
// The Checksum field itself is not covered.
func (f *Frame) Sum() uint16 {
	b := f.record()
	b[0], b[1] = 0, 0
	return crc16.Checksum(b[:], crcTable)
}

// Verify checks the transmitted checksum against the content.
func (f *Frame) Verify() error {
	if f.Checksum != f.Sum() {
		return ErrChecksum
	}
	return nil
}

// ValidateKind returns a KindError if the kind is undefined.
func (f *Frame) ValidateKind() error {
	if !f.Kind.IsValid() {
		return &KindError{Kind: f.Kind}
	}
	return nil
}

func (f *Frame) record() (b [Size]byte) {
	binary.BigEndian.PutUint16(b[0:], f.Checksum)
	b[offKind] = byte(f.Kind)
	b[offStatus] = f.Status
	copy(b[offSender:], f.Sender[:])
	copy(b[offTarget:], f.Target[:])
	copy(b[offPayload:], f.Payload[:])
	return
}

// RawBytes returns the record with Checksum as is. It's used to relay
// frames untouched.
func (f *Frame) RawBytes() [Size]byte {
	return f.record()
}

// Bytes updates the checksum and returns the encoded record.
func (f *Frame) Bytes() [Size]byte {
	f.Checksum = f.Sum()
	return f.record()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (f *Frame) MarshalBinary() ([]byte, error) {
	b := f.Bytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The checksum is decoded but not verified, see Verify.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return ErrTruncated
	}
	if len(data) > Size {
		return &LengthError{Op: "unmarshal", N: len(data)}
	}
	_, err := f.ReadFrom(bytes.NewReader(data))
	return err
}

// WriteTo encodes the frame into w. Writing anything other than Size bytes
// results in a LengthError.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b := f.Bytes()
	n, err := w.Write(b[:])
	if err == nil && n != Size {
		err = &LengthError{Op: "write", N: n}
	}
	return int64(n), err
}

// ReadFrom decodes the frame field by field from r.
// It fails with ErrTruncated as soon as a field can't be read fully.
func (f *Frame) ReadFrom(r io.Reader) (int64, error) {
	var head [offSender]byte
	var n int64
	fields := [][]byte{head[:], f.Sender[:], f.Target[:], f.Payload[:]}
	for _, field := range fields {
		nr, err := io.ReadFull(r, field)
		n += int64(nr)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return n, ErrTruncated
			}
			return n, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
	}
	f.Checksum = binary.BigEndian.Uint16(head[0:])
	f.Kind, f.Status = Kind(head[offKind]), head[offStatus]
	return n, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	f := &Frame{}
	if _, err := f.ReadFrom(r); err != nil {
		return nil, err
	}
	return f, nil
}

// String renders the frame for humans.
func (f *Frame) String() string {
	return fmt.Sprintf("%s crc=%04x status=%d from=%s to=%s data=%s",
		f.Kind, f.Checksum, f.Status, f.Sender, f.Target, hex.EncodeToString(f.Payload[:]))
}
