package lcd

import (
	"github.com/juju/errors"
)

type Revision string

const (
	RevA Revision = "a" // Turing 3.5"
	RevB Revision = "b" // XuanFang 3.5"
	RevC Revision = "c" // Turing 5"
	RevD Revision = "d" // 4" square panel
)

type ChecksumKind uint8

const (
	ChecksumNone ChecksumKind = iota
	ChecksumAdditive
	ChecksumCRC8
)

func (ck ChecksumKind) String() string {
	switch ck {
	case ChecksumNone:
		return "none"
	case ChecksumAdditive:
		return "additive"
	case ChecksumCRC8:
		return "crc8"
	}
	return "unknown"
}

// Orientation values match the device wire encoding.
type Orientation uint8

const (
	Portrait         Orientation = 0
	ReversePortrait  Orientation = 1
	Landscape        Orientation = 2
	ReverseLandscape Orientation = 3
)

func (o Orientation) IsReverse() bool { return o == ReversePortrait || o == ReverseLandscape }
func (o Orientation) IsLandscape() bool {
	return o == Landscape || o == ReverseLandscape
}

func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "", "portrait":
		return Portrait, nil
	case "reverse_portrait":
		return ReversePortrait, nil
	case "landscape":
		return Landscape, nil
	case "reverse_landscape":
		return ReverseLandscape, nil
	}
	return Portrait, errors.NotValidf("orientation=%s", s)
}

// Capability is the static description of one hardware revision.
// Immutable, looked up once at connect time.
type Capability struct {
	Revision      Revision
	Width         int // native (portrait) resolution
	Height        int
	MaxPayload    int // max bytes per single write command
	Checksum      ChecksumKind
	PartialUpdate bool
	Led           bool
	PowerControl  bool
	// RGB565 byte order on the wire
	BigEndianPixels bool
	// reverse orientations are rotated in software before transmission
	SoftwareReverse bool
}

// Size returns the logical resolution for the given orientation.
func (c *Capability) Size(o Orientation) (w, h int) {
	if o.IsLandscape() {
		return c.Height, c.Width
	}
	return c.Width, c.Height
}

var capabilities = map[Revision]Capability{
	RevA: {
		Revision:        RevA,
		Width:           320,
		Height:          480,
		MaxPayload:      320 * 8,
		Checksum:        ChecksumNone,
		PartialUpdate:   true,
		BigEndianPixels: false,
	},
	RevB: {
		Revision:        RevB,
		Width:           320,
		Height:          480,
		MaxPayload:      320 * 8,
		Checksum:        ChecksumNone,
		PartialUpdate:   true,
		Led:             true, // flagship only, downgraded after handshake
		BigEndianPixels: true,
		SoftwareReverse: true,
	},
	RevC: {
		Revision:        RevC,
		Width:           480,
		Height:          800,
		MaxPayload:      480 * 8,
		Checksum:        ChecksumAdditive,
		PartialUpdate:   false,
		PowerControl:    true,
		BigEndianPixels: true,
	},
	RevD: {
		Revision:        RevD,
		Width:           480,
		Height:          480,
		MaxPayload:      1024,
		Checksum:        ChecksumCRC8,
		PartialUpdate:   true,
		Led:             true,
		PowerControl:    true,
		BigEndianPixels: true,
	},
}

// CapabilityOf returns a copy so callers cannot mutate the registry.
func CapabilityOf(rev Revision) (*Capability, error) {
	c, ok := capabilities[rev]
	if !ok {
		return nil, errors.NotFoundf("display revision=%s", string(rev))
	}
	return &c, nil
}
