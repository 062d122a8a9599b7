// Wire format for messages exchanged between VMs
package wire

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformed marks a frame that failed to decode. The stream itself
// is still usable after the error.
var ErrMalformed = errors.New("malformed frame")

// TypeSend is the only message type currently on the wire.
const TypeSend = "SEND"

// Message is one application-level frame. The clock field is the
// sender's logical clock snapshot at the moment of that send.
type Message struct {
	Sender int    `json:"sender"`
	Clock  uint64 `json:"clock"`
	Type   string `json:"type"`
}

// Encoder writes newline-delimited JSON messages, one per frame.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes a single message frame.
func (e *Encoder) Encode(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Decoder reads newline-delimited JSON messages. A frame that fails to
// decode is reported as an error without disturbing the framing, so the
// caller can drop it and keep reading the same stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{scanner: bufio.NewScanner(r)}
}

// Next returns the next message. It returns io.EOF once the stream is
// exhausted. Any other error refers to the offending frame only.
func (d *Decoder) Next() (Message, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return Message{}, err
		}
		return Message{}, io.EOF
	}
	var msg Message
	if err := json.Unmarshal(d.scanner.Bytes(), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}
