package viewer

import (
	"github.com/rs/zerolog"
)

// Dispatcher routes raw pointer events to the hover overlay and the
// selection state machine. Hover and click are independent: moving the
// pointer never changes the selection, clicking never changes the hover.
type Dispatcher struct {
	picker    Picker
	hover     *HoverOverlay
	selection *Selection

	pickingEnabled bool
	log            zerolog.Logger
}

// NewDispatcher creates a dispatcher with picking enabled.
func NewDispatcher(picker Picker, hover *HoverOverlay, selection *Selection) *Dispatcher {
	return &Dispatcher{
		picker:         picker,
		hover:          hover,
		selection:      selection,
		pickingEnabled: true,
		log:            zerolog.Nop(),
	}
}

// SetLogger attaches a logger for event tracing.
func (d *Dispatcher) SetLogger(log zerolog.Logger) {
	d.log = log
}

// PickingEnabled reports whether pointer picking is active.
func (d *Dispatcher) PickingEnabled() bool {
	return d.pickingEnabled
}

// SetPickingEnabled toggles pointer picking. Disabling hides any visible
// hover overlay and makes subsequent moves and clicks no-ops; the current
// selection and its highlight are left untouched.
func (d *Dispatcher) SetPickingEnabled(enabled bool) {
	if d.pickingEnabled == enabled {
		return
	}
	d.pickingEnabled = enabled
	if !enabled {
		d.hover.Hide()
	}
	d.log.Debug().Bool("enabled", enabled).Msg("picking toggled")
}

// HandleMove processes a pointer move at viewport pixel (x, y).
func (d *Dispatcher) HandleMove(x, y int) {
	if !d.pickingEnabled {
		return
	}
	f, ok := d.picker.Pick(x, y)
	if !ok {
		d.hover.Hide()
		return
	}
	d.hover.Show(f, x, y)
}

// HandleClick processes a pointer click at viewport pixel (x, y).
func (d *Dispatcher) HandleClick(x, y int) {
	if !d.pickingEnabled {
		return
	}
	f, ok := d.picker.Pick(x, y)
	if !ok {
		d.log.Debug().Int("x", x).Int("y", y).Msg("click on empty space")
		d.selection.ClickEmpty()
		return
	}
	d.log.Debug().Int("x", x).Int("y", y).Int("feature", f.ID()).Msg("click on feature")
	d.selection.ClickFeature(f.ID())
}
