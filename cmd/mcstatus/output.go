package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/woozymasta/mcstatus/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

func printPing(w io.Writer, r models.PingReport) error {
	address := r.Address
	if r.CountryCode != "" {
		address += " (" + r.CountryCode + ")"
	}

	rows := [][]string{
		{"Address", address},
		{"Latency", r.Latency.String()},
	}
	if r.Version != nil {
		rows = append(rows, []string{"Version", fmt.Sprintf("%s (protocol %d)", r.Version.Name, r.Version.Protocol)})
	}
	if r.Players != nil {
		rows = append(rows, []string{"Players", fmt.Sprintf("%d/%d", r.Players.Online, r.Players.Max)})
		for _, s := range r.Players.Sample {
			rows = append(rows, []string{"", s.Name})
		}
	}
	if r.Description != "" {
		key := "Description"
		for _, line := range strings.Split(r.Description, "\n") {
			rows = append(rows, []string{key, line})
			key = ""
		}
	}
	if r.FaviconHash != "" {
		rows = append(rows, []string{"Favicon", r.FaviconHash})
	}
	if r.SchemaError != "" {
		rows = append(rows, []string{"Warning", r.SchemaError})
	}

	var b strings.Builder
	tw := tablewriter.NewWriter(&b)
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetColumnSeparator("")
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.AppendBulk(rows)
	tw.Render()

	_, err := io.WriteString(w, b.String())
	return err
}

func printScan(w io.Writer, r models.ScanReport) error {
	var b strings.Builder

	for _, p := range r.Open {
		fmt.Fprintf(&b, "%d\n", p)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
