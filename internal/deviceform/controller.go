// Package deviceform collects and submits new-device input.
//
// The Controller holds the raw text of each form field. Validation checks
// presence and that latitude, longitude and power parse as numbers; only
// then is a device.Input built and sent to the registry. A successful
// create is folded into the local view and the form is cleared. A failed
// create is logged and the values are kept so the user can retry.
//
// Submission is split into Begin and Complete so an event loop can run the
// create call in the background and apply the result on the loop. Submit
// does all three steps synchronously.
package deviceform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/chargemap-core/internal/device"
)

// Field names a form input.
type Field string

const (
	FieldName            Field = "name"
	FieldManufacturer    Field = "manufacturer"
	FieldModel           Field = "model"
	FieldEnergyCapacity  Field = "energyCapacity"
	FieldStatus          Field = "status"
	FieldFirmwareVersion Field = "firmwareVersion"
	FieldSoftwareVersion Field = "softwareVersion"
	FieldConnectorType   Field = "connectorType"
	FieldLatitude        Field = "lat"
	FieldLongitude       Field = "long"
	FieldZipCode         Field = "zipCode"
	FieldPower           Field = "power"
	FieldDetails         Field = "details"
)

// Fields returns every form field in display order.
func Fields() []Field {
	return []Field{
		FieldName, FieldManufacturer, FieldModel, FieldEnergyCapacity,
		FieldStatus, FieldFirmwareVersion, FieldSoftwareVersion, FieldConnectorType,
		FieldLatitude, FieldLongitude, FieldZipCode, FieldPower, FieldDetails,
	}
}

var (
	// ErrInvalidForm is returned when required fields are missing or
	// numeric fields do not parse.
	ErrInvalidForm = errors.New("deviceform: invalid form")

	// ErrUnknownField is returned by Set for a field the form does not have.
	ErrUnknownField = errors.New("deviceform: unknown field")

	// ErrSubmitInProgress is returned by Begin while an earlier submission
	// has not completed.
	ErrSubmitInProgress = errors.New("deviceform: submission in progress")
)

// Creator creates devices. device.Registry and registryclient.Client both
// satisfy it.
type Creator interface {
	CreateDevice(ctx context.Context, in device.Input) (*device.Device, error)
}

// Sink receives successfully created devices. mapsync.View satisfies it.
type Sink interface {
	AppendDevice(d device.Device) error
}

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Controller is the state behind the "add charger" form.
// It is not safe for concurrent use.
type Controller struct {
	values  map[Field]string
	creator Creator
	sink    Sink
	logger  Logger
	pending bool
}

// NewController creates an empty form.
func NewController(creator Creator, sink Sink) *Controller {
	return &Controller{
		values:  make(map[Field]string),
		creator: creator,
		sink:    sink,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// Set stores the raw text of one field.
func (c *Controller) Set(field Field, value string) error {
	if !knownField(field) {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.values[field] = value
	return nil
}

// SetAll stores several fields at once. Unknown fields are rejected before
// anything is stored.
func (c *Controller) SetAll(values map[string]string) error {
	for k := range values {
		if !knownField(Field(k)) {
			return fmt.Errorf("%w: %q", ErrUnknownField, k)
		}
	}
	for k, v := range values {
		c.values[Field(k)] = v
	}
	return nil
}

// Get returns the raw text of a field.
func (c *Controller) Get(field Field) string {
	return c.values[field]
}

// Values returns a copy of the current field values.
func (c *Controller) Values() map[Field]string {
	return maps.Clone(c.values)
}

// Reset clears every field.
func (c *Controller) Reset() {
	clear(c.values)
}

// Pending reports whether a submission has begun and not completed.
func (c *Controller) Pending() bool {
	return c.pending
}

// Validate checks required fields and numeric parsing.
func (c *Controller) Validate() error {
	var problems []string
	for _, f := range Fields() {
		if f == FieldDetails {
			continue
		}
		if strings.TrimSpace(c.values[f]) == "" {
			problems = append(problems, string(f)+" is required")
		}
	}
	for _, f := range []Field{FieldLatitude, FieldLongitude, FieldPower} {
		raw := strings.TrimSpace(c.values[f])
		if raw == "" {
			continue
		}
		if _, err := parseFinite(raw); err != nil {
			problems = append(problems, string(f)+" must be a number")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(problems, "; "))
	}
	return nil
}

// Begin validates the form and builds the create request. The form stays
// pending until Complete is called.
func (c *Controller) Begin() (device.Input, error) {
	if c.pending {
		return device.Input{}, ErrSubmitInProgress
	}
	if err := c.Validate(); err != nil {
		return device.Input{}, err
	}

	lat, _ := parseFinite(c.values[FieldLatitude])
	lng, _ := parseFinite(c.values[FieldLongitude])
	power, _ := parseFinite(c.values[FieldPower])

	c.pending = true
	return device.Input{
		Name: strings.TrimSpace(c.values[FieldName]),
		Location: device.LocationInput{
			Latitude:  device.NumberOf(lat),
			Longitude: device.NumberOf(lng),
			ZipCode:   strings.TrimSpace(c.values[FieldZipCode]),
		},
		Details:         strings.TrimSpace(c.values[FieldDetails]),
		Power:           device.NumberOf(power),
		Manufacturer:    strings.TrimSpace(c.values[FieldManufacturer]),
		Model:           strings.TrimSpace(c.values[FieldModel]),
		Status:          device.Status(strings.TrimSpace(c.values[FieldStatus])),
		FirmwareVersion: strings.TrimSpace(c.values[FieldFirmwareVersion]),
		SoftwareVersion: strings.TrimSpace(c.values[FieldSoftwareVersion]),
		ConnectorType:   strings.TrimSpace(c.values[FieldConnectorType]),
		EnergyCapacity:  strings.TrimSpace(c.values[FieldEnergyCapacity]),
	}, nil
}

// Complete applies the outcome of a create call started with Begin.
// On success the device is appended to the sink and the form is reset.
// On failure the error is logged, the values are kept and err is returned.
func (c *Controller) Complete(dev *device.Device, err error) error {
	c.pending = false

	if err != nil {
		c.logger.Error("failed to add device", "error", err)
		return err
	}
	if dev == nil {
		return errors.New("deviceform: create returned no device")
	}

	c.Reset()
	c.logger.Info("device added", "id", dev.ID, "name", dev.Name)

	if c.sink != nil {
		if err := c.sink.AppendDevice(*dev); err != nil {
			return fmt.Errorf("appending created device: %w", err)
		}
	}
	return nil
}

// Submit validates, creates and completes in one call.
func (c *Controller) Submit(ctx context.Context) (*device.Device, error) {
	in, err := c.Begin()
	if err != nil {
		return nil, err
	}
	dev, err := c.creator.CreateDevice(ctx, in)
	if err := c.Complete(dev, err); err != nil {
		return nil, err
	}
	return dev, nil
}

func knownField(f Field) bool {
	for _, known := range Fields() {
		if f == known {
			return true
		}
	}
	return false
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return f, nil
}
