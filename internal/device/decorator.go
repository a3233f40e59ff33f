package device

import "github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"

// LoggingDecorator wraps a Device and logs every command issued to it.
// Reads pass through untouched.
type LoggingDecorator struct {
	inner  Device
	logger *logging.Logger
}

// WithLogging wraps a device with command logging.
func WithLogging(inner Device, logger *logging.Logger) *LoggingDecorator {
	return &LoggingDecorator{
		inner:  inner,
		logger: logger.With("device_id", inner.ID(), "device_type", string(inner.Type())),
	}
}

// Unwrap returns the decorated device.
func (d *LoggingDecorator) Unwrap() Device { return d.inner }

func (d *LoggingDecorator) ID() string   { return d.inner.ID() }
func (d *LoggingDecorator) Name() string { return d.inner.Name() }
func (d *LoggingDecorator) Type() Type   { return d.inner.Type() }
func (d *LoggingDecorator) Status() bool { return d.inner.Status() }

func (d *LoggingDecorator) TurnOn() error {
	err := d.inner.TurnOn()
	if err != nil {
		d.logger.Error("turn on failed", "error", err)
		return err
	}
	d.logger.Info("turned on")
	return nil
}

func (d *LoggingDecorator) TurnOff() error {
	err := d.inner.TurnOff()
	if err != nil {
		d.logger.Error("turn off failed", "error", err)
		return err
	}
	d.logger.Info("turned off")
	return nil
}

func (d *LoggingDecorator) State() map[string]any { return d.inner.State() }
