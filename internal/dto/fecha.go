package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// FechaLayout is the wire format of calendar dates.
const FechaLayout = "2006-01-02"

// ErrFechaInvalida is returned while decoding a Fecha that matches no accepted layout.
var ErrFechaInvalida = errors.New("formato de fecha inválido, use AAAA-MM-DD o RFC3339")

// fechaLayouts are tried in order. RFC3339 also accepts fractional seconds.
var fechaLayouts = []string{FechaLayout, time.RFC3339, "2006-01-02T15:04:05"}

// Fecha is a request date accepted either as a bare calendar date or as a
// full RFC3339 timestamp. JSON null leaves it zero.
type Fecha struct {
	time.Time
}

// NuevaFecha builds a Fecha at midnight UTC.
func NuevaFecha(year int, month time.Month, day int) Fecha {
	return Fecha{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (f *Fecha) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrFechaInvalida
	}
	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return ErrFechaInvalida
}

// Dia drops the clock part, keeping the calendar date as written by the client.
func (f Fecha) Dia() time.Time {
	y, m, d := f.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
