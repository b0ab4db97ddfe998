package device

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/nerrad567/chargemap-core/internal/location"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr bool
	}{
		{
			name:    "valid input",
			mutate:  func(*Input) {},
			wantErr: false,
		},
		{
			name:    "numeric strings accepted",
			mutate:  func(in *Input) { in.Power = ParseNumber(" 7.4 ") },
			wantErr: false,
		},
		{
			name:    "unknown status accepted",
			mutate:  func(in *Input) { in.Status = "Reserved" },
			wantErr: false,
		},
		{
			name:    "missing name",
			mutate:  func(in *Input) { in.Name = "" },
			wantErr: true,
		},
		{
			name:    "whitespace manufacturer",
			mutate:  func(in *Input) { in.Manufacturer = "   " },
			wantErr: true,
		},
		{
			name:    "missing model",
			mutate:  func(in *Input) { in.Model = "" },
			wantErr: true,
		},
		{
			name:    "missing status",
			mutate:  func(in *Input) { in.Status = "" },
			wantErr: true,
		},
		{
			name:    "missing firmware version",
			mutate:  func(in *Input) { in.FirmwareVersion = "" },
			wantErr: true,
		},
		{
			name:    "missing software version",
			mutate:  func(in *Input) { in.SoftwareVersion = "" },
			wantErr: true,
		},
		{
			name:    "missing connector type",
			mutate:  func(in *Input) { in.ConnectorType = "" },
			wantErr: true,
		},
		{
			name:    "missing energy capacity",
			mutate:  func(in *Input) { in.EnergyCapacity = "" },
			wantErr: true,
		},
		{
			name:    "missing zip code",
			mutate:  func(in *Input) { in.Location.ZipCode = "" },
			wantErr: true,
		},
		{
			name:    "power not a number",
			mutate:  func(in *Input) { in.Power = ParseNumber("not-a-number") },
			wantErr: true,
		},
		{
			name:    "power missing",
			mutate:  func(in *Input) { in.Power = Number{} },
			wantErr: true,
		},
		{
			name:    "power NaN",
			mutate:  func(in *Input) { in.Power = ParseNumber("NaN") },
			wantErr: true,
		},
		{
			name:    "latitude infinite",
			mutate:  func(in *Input) { in.Location.Latitude = NumberOf(math.Inf(1)) },
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			mutate:  func(in *Input) { in.Location.Latitude = NumberOf(91) },
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			mutate:  func(in *Input) { in.Location.Longitude = NumberOf(-181) },
			wantErr: true,
		},
		{
			name:    "name exceeds max length",
			mutate:  func(in *Input) { in.Name = strings.Repeat("a", maxNameLength+1) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInput("Charger")
			tt.mutate(&in)
			err := ValidateInput(in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDevice) {
					t.Errorf("ValidateInput() = %v, want ErrInvalidDevice", err)
				}
			} else if err != nil {
				t.Errorf("ValidateInput() = %v, want nil", err)
			}
		})
	}
}

func TestValidateInput_WrapsLocationError(t *testing.T) {
	in := testInput("Charger")
	in.Location.Latitude = NumberOf(-95)

	err := ValidateInput(in)
	if !errors.Is(err, location.ErrInvalidLatitude) {
		t.Errorf("ValidateInput() = %v, want wrapped ErrInvalidLatitude", err)
	}
}

func TestValidateDevice(t *testing.T) {
	for _, d := range DefaultSeed() {
		if err := ValidateDevice(d); err != nil {
			t.Errorf("ValidateDevice(%s) = %v", d.Name, err)
		}
	}

	d := DefaultSeed()[0]
	d.ID = 0
	if err := ValidateDevice(d); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(id 0) = %v, want ErrInvalidDevice", err)
	}

	d = DefaultSeed()[0]
	d.PowerKW = math.NaN()
	if err := ValidateDevice(d); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(NaN power) = %v, want ErrInvalidDevice", err)
	}
}
