package timing

import (
	"math"

	"github.com/mscrnt/emgd_confgen/pkg/codec"
)

// Simple representation field names
const (
	FieldCVTWidth     Field = "cvt_width"
	FieldCVTHeight    Field = "cvt_height"
	FieldCVTRefresh   Field = "cvt_refresh"
	FieldCVTInterlace Field = "cvt_interlace"
)

// CVT 1.1 constants for standard (non reduced) blanking
const (
	CellGran        = 8   // character cell granularity, pixels
	HSyncPer        = 8   // horizontal sync as percent of line
	MinVSyncBP      = 550 // minimum vsync + back porch, microseconds
	MinVPorchRnd    = 3   // minimum vertical front porch, lines
	MinVBPorch      = 6   // minimum vertical back porch, lines
	CPrime          = 30  // blanking formula offset
	MPrime          = 300 // blanking formula gradient
	MinDuty         = 20  // floor for the ideal blanking duty cycle, percent
	InterlaceOffset = 0.5 // extra line per field when interlaced
)

// Simple derives a complete timing from resolution and refresh rate using CVT
type Simple struct{}

func (Simple) Name() string { return "simple" }

func (Simple) Description() string {
	return "Width, height, refresh rate and interlace; remaining fields derived with CVT"
}

func (Simple) Fields() []Field {
	return []Field{FieldCVTWidth, FieldCVTHeight, FieldCVTRefresh, FieldCVTInterlace}
}

func (Simple) Apply(p *Params, in Values) []Field {
	r := newReader(in)

	width, okW := r.int(FieldCVTWidth)
	height, okH := r.int(FieldCVTHeight)
	refresh, okR := r.int(FieldCVTRefresh)
	interlaced, _ := r.flag(FieldCVTInterlace)
	if !okW || !okH || !okR {
		return r.skipped
	}

	t, ok := CVT(width, height, refresh, interlaced)
	if !ok {
		r.skip(FieldCVTRefresh)
		return r.skipped
	}

	set(&p.PixelClock, t.PixelClock)
	set(&p.HActive, t.HActive)
	set(&p.HSyncOffset, t.HSyncOffset)
	set(&p.HSyncPulseWidth, t.HSyncPulseWidth)
	set(&p.HBlanking, t.HBlanking)
	set(&p.VActive, t.VActive)
	set(&p.VSyncOffset, t.VSyncOffset)
	set(&p.VSyncPulseWidth, t.VSyncPulseWidth)
	set(&p.VBlanking, t.VBlanking)
	p.Interlaced = Bool(interlaced)
	p.HSyncPolarity = Bool(false)
	p.VSyncPolarity = Bool(true)

	return r.skipped
}

// CVTTiming is the result of the CVT computation, pixel clock in kHz
type CVTTiming struct {
	PixelClock      int
	HActive         int
	HSyncOffset     int
	HSyncPulseWidth int
	HBlanking       int
	VActive         int
	VSyncOffset     int
	VSyncPulseWidth int
	VBlanking       int
}

// AspectVSync returns the CVT vertical sync width that encodes the aspect ratio
func AspectVSync(width, height int) int {
	switch {
	case width*3 == height*4:
		return 4
	case width*9 == height*16:
		return 5
	case width*10 == height*16:
		return 6
	case width*4 == height*5, width*9 == height*15:
		return 7
	default:
		return 10
	}
}

// CVT computes a standard blanking timing. The width is used as given, not
// rounded to the cell granularity. Interlaced modes double the field rate and
// halve the line count. It reports false when the inputs cannot produce a
// positive line period.
func CVT(width, height, refresh int, interlaced bool) (CVTTiming, bool) {
	if width <= 0 || height <= 0 || refresh <= 0 {
		return CVTTiming{}, false
	}

	vSync := AspectVSync(width, height)

	fieldRate := float64(refresh)
	lines := float64(height)
	extra := 0.0
	if interlaced {
		fieldRate *= 2
		lines /= 2
		extra = InterlaceOffset
	}

	// estimated line period, microseconds
	hPeriodEst := ((1 / fieldRate) - MinVSyncBP/1000000.0) / (lines + MinVPorchRnd + extra) * 1000000.0
	if hPeriodEst <= 0 {
		return CVTTiming{}, false
	}

	vSyncBP := codec.Round(MinVSyncBP/hPeriodEst) + 1
	if vSyncBP < vSync+MinVBPorch {
		vSyncBP = vSync + MinVBPorch
	}

	dutyCycle := CPrime - (MPrime * hPeriodEst / 1000)
	if dutyCycle < MinDuty {
		dutyCycle = MinDuty
	}

	hBlank := codec.Round(float64(width)*dutyCycle/(100.0-dutyCycle)/(2.0*CellGran)) * 2 * CellGran
	totalPixels := float64(width + hBlank)
	hSync := codec.Round(HSyncPer/100.0*totalPixels/CellGran) * CellGran

	return CVTTiming{
		// nearest 100 kHz, halves rounding up
		PixelClock:      int(math.Floor(totalPixels/hPeriodEst*10.0+0.5)) * 100,
		HActive:         width,
		HSyncOffset:     codec.Round(float64(hBlank)/2.0 - float64(hSync)),
		HSyncPulseWidth: hSync,
		HBlanking:       hBlank,
		VActive:         height,
		VSyncOffset:     MinVPorchRnd,
		VSyncPulseWidth: vSync,
		VBlanking:       vSyncBP + MinVPorchRnd,
	}, true
}
