package scene

// PropKind selects how a prop's sprites are produced.
type PropKind string

const (
	KindImage  PropKind = "image"
	KindVideo  PropKind = "video"
	KindColour PropKind = "colour"
	KindPDF    PropKind = "pdf"
	KindQRCode PropKind = "qrcode"
)

// CompositeMode selects how a prop is painted onto the canvas.
type CompositeMode string

const (
	// ModeCopy overwrites destination pixels, alpha included.
	ModeCopy CompositeMode = "copy"
	// ModeOverlay alpha-blends the sprite over the canvas.
	ModeOverlay CompositeMode = "overlay"

	// modePaste is the historical spelling of ModeCopy.
	modePaste CompositeMode = "paste"
)

// Normalize maps aliases onto their canonical mode.
func (m CompositeMode) Normalize() CompositeMode {
	if m == modePaste {
		return ModeCopy
	}
	return m
}

// Scene is a complete render job: canvas, props, frame scripts and audio.
type Scene struct {
	ID         string          `json:"id" yaml:"id"`
	FPS        int             `json:"fps" yaml:"fps"`
	CanvasSize CanvasSize      `json:"canvasSize" yaml:"canvasSize"`
	Props      map[string]Prop `json:"props" yaml:"props"`
	Audio      string          `json:"audio,omitempty" yaml:"audio,omitempty"`
	// Precompute scenes are rendered first and exposed to this scene as
	// animated props under their own ids.
	Precompute []Scene  `json:"precompute,omitempty" yaml:"precompute,omitempty"`
	Frames     []Script `json:"frames" yaml:"frames"`
}

type CanvasSize struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Bytes is the size of one raw RGBA frame of this canvas.
func (c CanvasSize) Bytes() int {
	return c.Width * c.Height * 4
}

// RGB is an opaque colour.
type RGB [3]uint8

// Prop is a reusable visual asset definition.
type Prop struct {
	ID            string        `json:"id,omitempty" yaml:"id,omitempty"`
	Sprites       []string      `json:"sprites,omitempty" yaml:"sprites,omitempty"`
	PropType      PropKind      `json:"propType" yaml:"propType"`
	CompositeType CompositeMode `json:"compositeType" yaml:"compositeType"`

	Width  *int `json:"width,omitempty" yaml:"width,omitempty"`
	Height *int `json:"height,omitempty" yaml:"height,omitempty"`
	Colour *RGB `json:"colour,omitempty" yaml:"colour,omitempty"`

	// DPI is used by pdf props.
	DPI float64 `json:"dpi,omitempty" yaml:"dpi,omitempty"`
	// Text is the payload of qrcode props.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Size returns the declared size, falling back to the given defaults.
func (p Prop) Size(defWidth, defHeight int) (int, int) {
	w, h := defWidth, defHeight
	if p.Width != nil {
		w = *p.Width
	}
	if p.Height != nil {
		h = *p.Height
	}
	return w, h
}

// Script is the ordered list of directions composing one output frame.
// Later directions paint over earlier ones.
type Script struct {
	ID         string           `json:"id" yaml:"id"`
	Directions []StageDirection `json:"props" yaml:"props"`
}

// StageDirection places one prop on the canvas.
type StageDirection struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Prop   string `json:"prop" yaml:"prop"`
	Sprite *int   `json:"sprite,omitempty" yaml:"sprite,omitempty"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	// Width and Height override the prop's natural size for placement.
	Width  *int `json:"width,omitempty" yaml:"width,omitempty"`
	Height *int `json:"height,omitempty" yaml:"height,omitempty"`
}

// SpriteIndex is the requested sprite, defaulting to 0.
func (d StageDirection) SpriteIndex() int {
	if d.Sprite == nil || *d.Sprite < 0 {
		return 0
	}
	return *d.Sprite
}

// Int returns a pointer to v, for building optional fields.
func Int(v int) *int {
	return &v
}
