package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/olekukonko/tablewriter"

	"github.com/tie/mrupdate"
)

const projectURL = "https://modrinth.com/project/"

type reportFormat string

const (
	formatTable reportFormat = "table"
	formatJSON  reportFormat = "json"
	formatYAML  reportFormat = "yaml"
)

func parseReportFormat(s string) (reportFormat, error) {
	switch f := reportFormat(strings.ToLower(s)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		return formatTable, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

type reportRow struct {
	Name    string          `json:"name" yaml:"name"`
	File    string          `json:"file" yaml:"file"`
	Current string          `json:"current" yaml:"current"`
	Latest  string          `json:"latest" yaml:"latest"`
	Status  mrupdate.Status `json:"status" yaml:"status"`
	Action  mrupdate.Action `json:"action" yaml:"action"`
	Project string          `json:"project,omitempty" yaml:"project,omitempty"`
	Link    string          `json:"link,omitempty" yaml:"link,omitempty"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReport(mods []mrupdate.ResolvedMod, actions map[string]mrupdate.Action) []reportRow {
	rows := make([]reportRow, len(mods))
	for i, m := range mods {
		latest := mrupdate.NotApplicable
		if m.Version != "" {
			latest = m.Version
		}
		r := reportRow{
			Name:    m.DisplayName,
			File:    m.FileName,
			Current: mrupdate.VersionTag(m.FileName),
			Latest:  latest,
			Status:  m.Status,
			Action:  actions[m.Entry.Path],
			Project: m.ProjectID,
		}
		if m.ProjectID != "" {
			r.Link = projectURL + m.ProjectID
		}
		if m.Err != nil {
			r.Error = m.Err.Error()
		}
		rows[i] = r
	}
	return rows
}

// reportFilter selects rows by case-insensitive name substring and by
// status. An empty statuses set matches every status.
type reportFilter struct {
	Name     string
	Statuses map[mrupdate.Status]bool
}

func parseStatuses(s string) (map[mrupdate.Status]bool, error) {
	statuses := make(map[mrupdate.Status]bool)
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "all") {
			continue
		}
		st, err := parseStatusFold(name)
		if err != nil {
			return nil, err
		}
		statuses[st] = true
	}
	return statuses, nil
}

func parseStatusFold(name string) (mrupdate.Status, error) {
	for _, st := range []mrupdate.Status{
		mrupdate.StatusError,
		mrupdate.StatusCompatible,
		mrupdate.StatusUpdate,
		mrupdate.StatusIncompatible,
	} {
		if strings.EqualFold(st.String(), name) {
			return st, nil
		}
	}
	return mrupdate.ParseStatus(name)
}

func (f *reportFilter) Match(r reportRow) bool {
	if len(f.Statuses) > 0 && !f.Statuses[r.Status] {
		return false
	}
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Name))
}

func (f *reportFilter) Apply(rows []reportRow) []reportRow {
	out := make([]reportRow, 0, len(rows))
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func writeReport(w io.Writer, format reportFormat, rows []reportRow) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case formatYAML:
		b, err := yaml.MarshalWithOptions(rows,
			yaml.Indent(2),
			yaml.IndentSequence(false),
		)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}

	table := tablewriter.NewTable(w)
	table.Header("Name", "Current", "Latest", "Status", "Action", "Link")
	for _, r := range rows {
		link := r.Link
		if link == "" {
			link = "-"
		}
		if err := table.Append(r.Name, r.Current, r.Latest, r.Status.String(), r.Action.String(), link); err != nil {
			return err
		}
	}
	return table.Render()
}

// summary counts rows by status.
func summary(rows []reportRow) string {
	var counts [4]int
	for _, r := range rows {
		if int(r.Status) < len(counts) {
			counts[r.Status]++
		}
	}
	return fmt.Sprintf("%d compatible, %d update, %d incompatible, %d error",
		counts[mrupdate.StatusCompatible], counts[mrupdate.StatusUpdate],
		counts[mrupdate.StatusIncompatible], counts[mrupdate.StatusError])
}
