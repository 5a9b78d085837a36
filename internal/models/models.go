// Package models defines the reports printed by the commands.
package models

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/woozymasta/mcstatus/internal/game"
	"github.com/woozymasta/mcstatus/internal/scanner"
	"github.com/woozymasta/mcstatus/internal/status"
	"github.com/woozymasta/mcstatus/internal/vars"
)

// PingReport is the outcome of the ping command.
type PingReport struct {
	// betteralign:ignore

	Address     string          `json:"address"`
	CountryCode string          `json:"country_code,omitempty"`
	Version     *status.Version `json:"version,omitempty"`
	Players     *status.Players `json:"players,omitempty"`
	Description string          `json:"description,omitempty"`
	FaviconHash string          `json:"favicon_hash,omitempty"`
	Latency     Duration        `json:"latency"`

	// Raw is the status JSON text as sent by the server.
	Raw         json.RawMessage `json:"raw,omitempty"`
	SchemaError string          `json:"schema_error,omitempty"`

	Build vars.BuildInfo `json:"build"`
}

// NewPingReport builds a report from a query result.
func NewPingReport(res *game.Result, country string) PingReport {
	r := PingReport{
		Address:     res.Address.String(),
		CountryCode: country,
		Latency:     Duration(res.Latency),
		Build:       vars.Info(),
	}

	if json.Valid([]byte(res.Raw)) {
		r.Raw = json.RawMessage(res.Raw)
	}
	if res.SchemaErr != nil {
		r.SchemaError = res.SchemaErr.Error()
	}

	if s := res.Status; s != nil {
		r.Version = &s.Version
		r.Players = &s.Players
		r.Description = s.Description.String()
		if h, ok := s.FaviconHash(); ok {
			r.FaviconHash = strconv.FormatUint(h, 16)
		}
	}

	return r
}

// ScanReport is the outcome of the scan command.
type ScanReport struct {
	// betteralign:ignore

	Address string   `json:"address"`
	From    uint16   `json:"from"`
	To      uint16   `json:"to"`
	Open    []uint16 `json:"open"`
	Took    Duration `json:"took"`

	// Partial is set when the scan was interrupted before every port was probed.
	Partial bool `json:"partial,omitempty"`

	Build vars.BuildInfo `json:"build"`
}

// NewScanReport builds a report from a scan result.
func NewScanReport(address string, r scanner.Range, res scanner.Result, took time.Duration, partial bool) ScanReport {
	return ScanReport{
		Address: address,
		From:    r.From,
		To:      r.To,
		Open:    res.Ports(),
		Took:    Duration(took),
		Partial: partial,
		Build:   vars.Info(),
	}
}

// Duration marshals as fractional milliseconds.
type Duration time.Duration

// MarshalJSON writes d in milliseconds with microsecond precision.
func (d Duration) MarshalJSON() ([]byte, error) {
	ms := float64(time.Duration(d).Microseconds()) / 1000
	return strconv.AppendFloat(nil, ms, 'f', -1, 64), nil
}

func (d Duration) String() string {
	return time.Duration(d).Round(time.Microsecond).String()
}
