package project

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"app-reconciler/internal/config"
	"app-reconciler/internal/csvio"
	"app-reconciler/internal/diagnostic"
	"app-reconciler/internal/logging"
	"app-reconciler/internal/mapping"
	"app-reconciler/internal/schema"
)

// ErrMissingLinkTarget is returned when a record link has to be resolved
// through the link map and the map has no entry for the row.
var ErrMissingLinkTarget = errors.New("no created record for link")

// Options configures a Projector.
type Options struct {
	// Dir holds the repeatable child files.
	Dir string
	// Prefix names child files {Prefix}_{data_name}.csv; empty means
	// {data_name}.csv.
	Prefix  string
	Columns config.ColumnsConfig
	// LinkMap holds the ids created by the prior pass of a follow-up
	// import. When set it translates linked record ids and resolves link
	// fields missing from a row through the row's own id.
	LinkMap *mapping.IDMap
	Logger  *zap.Logger
}

// Projector projects rows of one export. Child files are read once per
// Projector.
type Projector struct {
	opts     Options
	logger   *zap.Logger
	children map[string]map[string][]csvio.Row
	// claimed holds, per child file, the parent ids some projected row had.
	claimed map[string]map[string]bool
	diags   diagnostic.Diagnostics
}

// New returns a Projector.
func New(opts Options) *Projector {
	return &Projector{
		opts:     opts,
		logger:   logging.OrNop(opts.Logger),
		children: map[string]map[string][]csvio.Row{},
		claimed:  map[string]map[string]bool{},
	}
}

// Diagnostics returns the findings collected so far.
func (p *Projector) Diagnostics() *diagnostic.Diagnostics { return &p.diags }

// Records checks fields for duplicates and projects every row. Child rows
// whose parent was never projected are reported as error diagnostics.
func (p *Projector) Records(formID string, fields []schema.Field, rows []csvio.Row) ([]Record, error) {
	if err := schema.CheckDuplicates(fields); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))

	for _, row := range rows {
		rec, err := p.Record(formID, fields, row)
		if err != nil {
			return out, err
		}

		out = append(out, rec)
	}

	p.orphans()

	return out, nil
}

func (p *Projector) orphans() {
	for _, dataName := range slices.Sorted(maps.Keys(p.children)) {
		byParent := p.children[dataName]

		for _, parent := range slices.Sorted(maps.Keys(byParent)) {
			if p.claimed[dataName][parent] {
				continue
			}

			p.diags.AddError(diagnostic.CodeOrphanChild,
				fmt.Sprintf("%d child rows have no parent row", len(byParent[parent])), parent, dataName)
		}
	}
}

// Record projects one row over the fields of a single record level and
// strips empty values.
func (p *Projector) Record(formID string, fields []schema.Field, row csvio.Row) (Record, error) {
	rec := Record{
		FormID:     formID,
		Latitude:   p.coordinate(row, p.opts.Columns.Latitude),
		Longitude:  p.coordinate(row, p.opts.Columns.Longitude),
		FormValues: map[string]Value{},
		SourceID:   row[p.opts.Columns.ID],
	}

	for _, f := range schema.Scope(fields) {
		v, err := p.Value(f, row)
		if err != nil {
			return rec, fmt.Errorf("record %s: %w", rec.SourceID, err)
		}

		if v != nil {
			rec.FormValues[f.Key] = v
		}
	}

	Strip(rec.FormValues)

	return rec, nil
}

func (p *Projector) coordinate(row csvio.Row, column string) *float64 {
	if column == "" || row[column] == "" {
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(row[column]), 64)
	if err != nil {
		return nil
	}

	return &v
}

// Value projects a single field. A nil Value means the field contributes
// nothing to the record.
func (p *Projector) Value(f schema.Field, row csvio.Row) (Value, error) {
	raw, present := row[f.DataName]

	switch f.Type {
	case schema.Section:
		return nil, nil
	case schema.TextField:
		if !present {
			return nil, nil
		}

		return p.text(f, row, raw), nil
	case schema.ChoiceField, schema.ClassificationField:
		return Choice{
			ChoiceValues: split(raw),
			OtherValues:  split(row[f.DataName+"_other"]),
		}, nil
	case schema.AddressField:
		var a Address
		for _, c := range AddressComponents {
			a.set(c, row[f.DataName+"_"+c])
		}

		return a, nil
	case schema.PhotoField, schema.AudioField, schema.VideoField:
		return media(f, row), nil
	case schema.RecordLinkField:
		return p.links(f, row, raw, present)
	case schema.Repeatable:
		return p.repeatable(f, row)
	case schema.SignatureField:
		if raw != "" {
			p.diags.AddWarning(diagnostic.CodeSignature, "signatures are not imported", row[p.opts.Columns.ID], f.DataName)
		}

		return Signature{}, nil
	default:
		if !present {
			return nil, nil
		}

		return Text(raw), nil
	}
}

func (p *Projector) text(f schema.Field, row csvio.Row, raw string) Value {
	if raw == "" {
		return Text("")
	}

	var err error

	switch f.Format {
	case schema.FormatDecimal:
		_, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case schema.FormatInteger:
		_, err = strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	}

	if err != nil {
		id := row[p.opts.Columns.ID]
		msg := fmt.Sprintf("could not convert %q to %s, value dropped", raw, f.Format)

		p.diags.AddWarning(diagnostic.CodeInvalidNumber, msg, id, f.DataName)
		p.logger.Warn(msg, zap.String("record", id), zap.String("field", f.DataName))

		return nil
	}

	return Text(raw)
}

func media(f schema.Field, row csvio.Row) Value {
	ids, idsOK := row[f.DataName]
	captions, capsOK := row[f.DataName+"_caption"]

	if !idsOK || !capsOK {
		return MediaList{}
	}

	idList := split(ids)
	capList := split(captions)
	out := make(MediaList, len(idList))

	for i, id := range idList {
		out[i] = Media{Kind: f.Type, ID: id}
		if i < len(capList) {
			out[i].Caption = capList[i]
		}
	}

	return out
}

func (p *Projector) links(f schema.Field, row csvio.Row, raw string, present bool) (Value, error) {
	if present {
		ids := split(raw)
		out := make(LinkList, len(ids))

		for i, id := range ids {
			if p.opts.LinkMap != nil {
				if created, ok := p.opts.LinkMap.Lookup(id); ok {
					id = created
				}
			}

			out[i] = Link{RecordID: id}
		}

		return out, nil
	}

	if p.opts.LinkMap == nil {
		return LinkList{}, nil
	}

	source := row[p.opts.Columns.ID]

	created, ok := p.opts.LinkMap.Lookup(source)
	if !ok {
		return nil, fmt.Errorf("%w: field %s, source id %q", ErrMissingLinkTarget, f.DataName, source)
	}

	p.diags.AddInfo(diagnostic.CodeLinkFallback, "link resolved through link map", source, f.DataName)

	return LinkList{{RecordID: created}}, nil
}

func (p *Projector) repeatable(f schema.Field, row csvio.Row) (Value, error) {
	byParent, err := p.childRows(f.DataName)
	if err != nil {
		return nil, err
	}

	parent := row[p.opts.Columns.ID]

	if p.claimed[f.DataName] == nil {
		p.claimed[f.DataName] = map[string]bool{}
	}
	p.claimed[f.DataName][parent] = true

	entries := Repeatable{}

	for _, child := range byParent[parent] {
		rec, err := p.Record("", f.Elements, child)
		if err != nil {
			return nil, fmt.Errorf("repeatable %s: %w", f.DataName, err)
		}

		entries = append(entries, rec)
	}

	return entries, nil
}

// childRows reads the child file of a repeatable once and indexes it by
// parent id. A missing file has no rows.
func (p *Projector) childRows(dataName string) (map[string][]csvio.Row, error) {
	if rows, ok := p.children[dataName]; ok {
		return rows, nil
	}

	name := dataName + ".csv"
	if p.opts.Prefix != "" {
		name = p.opts.Prefix + "_" + name
	}

	path := filepath.Join(p.opts.Dir, name)
	byParent := map[string][]csvio.Row{}

	t, err := csvio.Read(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		p.diags.AddInfo(diagnostic.CodeMissingChild, "no child file "+path, "", dataName)
		p.logger.Debug("no child file", zap.String("path", path))
	case err != nil:
		return nil, err
	default:
		for _, r := range t.Rows {
			parent := r[p.opts.Columns.ParentID]
			byParent[parent] = append(byParent[parent], r)
		}
	}

	p.children[dataName] = byParent

	return byParent, nil
}

// split splits a comma-separated cell; an empty cell has no items.
func split(s string) []string {
	if s == "" {
		return []string{}
	}

	return strings.Split(s, ",")
}
