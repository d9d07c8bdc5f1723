package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// CodecCapability is one codec entry of a device capability descriptor.
type CodecCapability struct {
	Kind string `json:"kind"`
	webrtc.RTPCodecCapability
}

type HeaderExtension struct {
	Kind        string `json:"kind"`
	PreferredID int    `json:"preferredId"`
	webrtc.RTPHeaderExtensionCapability
}

// MediaCapabilities is the decoded capability descriptor of a participant.
// The incoming JSON is kept and is what gets serialized back out, so fields
// the coordinator does not model survive a round trip.
type MediaCapabilities struct {
	Codecs           []CodecCapability
	HeaderExtensions []HeaderExtension

	raw json.RawMessage
}

// DecodeCapabilities turns a wire value into capabilities or an explicit absence.
// It accepts a JSON object, a JSON string holding an object, and the absence
// sentinels null, "", "null" and "undefined". A nil result with a nil error is absence.
func DecodeCapabilities(data []byte) (*MediaCapabilities, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%w: media capabilities: %v", ErrInvalidArgument, err)
		}
		s = strings.TrimSpace(s)
		switch s {
		case "", "null", "undefined":
			return nil, nil
		}
		data = []byte(s)
	}

	if data[0] != '{' {
		return nil, fmt.Errorf("%w: media capabilities must be an object", ErrInvalidArgument)
	}

	var decoded struct {
		Codecs           []CodecCapability `json:"codecs"`
		HeaderExtensions []HeaderExtension `json:"headerExtensions"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: media capabilities: %v", ErrInvalidArgument, err)
	}

	for i, c := range decoded.Codecs {
		if err := validateCodec(c); err != nil {
			return nil, fmt.Errorf("%w: media capabilities codec %d: %v", ErrInvalidArgument, i, err)
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		return nil, fmt.Errorf("%w: media capabilities: %v", ErrInvalidArgument, err)
	}

	return &MediaCapabilities{
		Codecs:           decoded.Codecs,
		HeaderExtensions: decoded.HeaderExtensions,
		raw:              compact.Bytes(),
	}, nil
}

func validateCodec(c CodecCapability) error {
	mediaType, _, ok := strings.Cut(c.MimeType, "/")
	if !ok || mediaType == "" {
		return fmt.Errorf("bad mime type %q", c.MimeType)
	}
	kind := webrtc.NewRTPCodecType(mediaType)
	if kind == webrtc.RTPCodecType(0) {
		return fmt.Errorf("unsupported media type %q", mediaType)
	}
	if c.Kind != "" && webrtc.NewRTPCodecType(c.Kind) != kind {
		return fmt.Errorf("kind %q does not match mime type %q", c.Kind, c.MimeType)
	}
	if c.ClockRate == 0 {
		return fmt.Errorf("codec %q has no clock rate", c.MimeType)
	}
	return nil
}

// HasKind reports whether any codec of the given kind ("audio" or "video") is present.
func (m *MediaCapabilities) HasKind(kind string) bool {
	if m == nil {
		return false
	}
	want := webrtc.NewRTPCodecType(kind)
	for _, c := range m.Codecs {
		mediaType, _, _ := strings.Cut(c.MimeType, "/")
		if webrtc.NewRTPCodecType(mediaType) == want {
			return true
		}
	}
	return false
}

func (m *MediaCapabilities) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.raw) == 0 {
		return []byte("null"), nil
	}
	return append([]byte(nil), m.raw...), nil
}

func (m *MediaCapabilities) Clone() *MediaCapabilities {
	if m == nil {
		return nil
	}
	out := &MediaCapabilities{
		Codecs:           make([]CodecCapability, len(m.Codecs)),
		HeaderExtensions: append([]HeaderExtension(nil), m.HeaderExtensions...),
		raw:              append(json.RawMessage(nil), m.raw...),
	}
	for i, c := range m.Codecs {
		c.RTCPFeedback = append([]webrtc.RTCPFeedback(nil), c.RTCPFeedback...)
		out.Codecs[i] = c
	}
	return out
}
