package capture

import (
	"bytes"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"
)

// MIMEOggOpus tags payloads produced by OggOpusEncoder.
const MIMEOggOpus = "audio/ogg; codecs=opus"

const maxOpusPacket = 4000

// OggOpusEncoder encodes frames with libopus and wraps the packets in an
// Ogg container.
type OggOpusEncoder struct {
	buf       bytes.Buffer
	writer    *oggwriter.OggWriter
	opus      *opus.Encoder
	packet    []byte
	frame     int
	sampleIdx uint32
	seq       uint16
}

// NewOggOpusEncoder creates an encoder for f. The Ogg headers are emitted
// with the first encoded frame.
func NewOggOpusEncoder(f Format) (Encoder, error) {
	enc, err := opus.NewEncoder(f.SampleRate, f.Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create Opus encoder: %w", err)
	}

	e := &OggOpusEncoder{
		opus:   enc,
		packet: make([]byte, maxOpusPacket),
		frame:  f.FrameSamples,
	}

	writer, err := oggwriter.NewWith(&e.buf, uint32(f.SampleRate), uint16(f.Channels))
	if err != nil {
		return nil, fmt.Errorf("create OGG writer: %w", err)
	}
	e.writer = writer

	return e, nil
}

func (e *OggOpusEncoder) MIMEType() string {
	return MIMEOggOpus
}

func (e *OggOpusEncoder) Encode(pcm []int16) ([]byte, error) {
	n, err := e.opus.Encode(pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("encode Opus frame: %w", err)
	}

	if err := e.writer.WriteRTP(&rtp.Packet{
		Header: rtp.Header{
			SequenceNumber: e.seq,
			Timestamp:      e.sampleIdx,
		},
		Payload: append([]byte(nil), e.packet[:n]...),
	}); err != nil {
		return nil, fmt.Errorf("write Opus packet: %w", err)
	}

	e.seq++
	e.sampleIdx += uint32(e.frame)
	return e.drain(), nil
}

func (e *OggOpusEncoder) Flush() ([]byte, error) {
	if err := e.writer.Close(); err != nil {
		return nil, fmt.Errorf("close OGG writer: %w", err)
	}
	return e.drain(), nil
}

func (e *OggOpusEncoder) drain() []byte {
	if e.buf.Len() == 0 {
		return nil
	}
	out := append([]byte(nil), e.buf.Bytes()...)
	e.buf.Reset()
	return out
}
