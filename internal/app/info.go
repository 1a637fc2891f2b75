package app

import (
	"errors"

	"github.com/dshills/conscreen/internal/config"
	"github.com/dshills/conscreen/internal/console"
)

// Report describes a freshly created screen buffer.
type Report struct {
	// Size is the 8-bit size scripts see. Valid only when SizeErr is nil.
	Size console.Size

	// SizeErr is set when the buffer does not fit the size mode.
	SizeErr error

	// Geometry is the full-width layout.
	Geometry console.Geometry

	// SizeMode is the narrowing policy used.
	SizeMode console.SizeMode
}

// Inspect creates a screen buffer, reads its size and geometry, and
// releases it again.
func Inspect(native console.Native, cfg *config.Config) (report Report, err error) {
	if cfg == nil {
		cfg = config.Default()
	}

	adapter := console.New(native, console.WithSizeMode(cfg.SizeMode()))
	report.SizeMode = adapter.SizeMode()

	if err := adapter.CreateScreenBuffer(); err != nil {
		return report, NewOperationError("create", "screen buffer", err)
	}
	defer func() {
		if cerr := adapter.Close(); cerr != nil {
			err = errors.Join(err, NewOperationError("close", "screen buffer", cerr))
		}
	}()

	geom, err := adapter.Geometry()
	if err != nil {
		return report, NewOperationError("info", "screen buffer", err)
	}
	report.Geometry = geom

	size, err := adapter.ScreenInfo()
	if err != nil {
		var rangeErr *console.RangeError
		if !errors.As(err, &rangeErr) {
			return report, NewOperationError("info", "screen buffer", err)
		}
		report.SizeErr = err
	}
	report.Size = size

	return report, nil
}
