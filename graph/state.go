// Package graph provides the core workflow execution engine: a typed state
// container, node and edge definitions, a fluent graph builder, and the
// scheduler that walks a compiled graph to completion.
package graph

import (
	"reflect"
	"time"
)

// Meta holds the three fields every workflow state carries regardless of
// workload: a unique execution identifier, the timestamp of the last merge,
// and a map from node id to that node's last output.
type Meta struct {
	ExecutionID string
	LastUpdated time.Time
	Outputs     map[string]any
}

// Stateful is implemented by every workload-specific state type S. It lets
// the scheduler read and refresh the three mandatory fields (executionId,
// lastUpdated, outputs) without knowing S's other fields.
//
// WithMeta must return a copy of the receiver with Meta replaced; state is
// value-typed and node executions never mutate their input in place.
type Stateful[S any] interface {
	Meta() Meta
	WithMeta(Meta) S
}

// Reducer merges a delta into the accumulated state. MergeState is the
// built-in reducer derived from struct tags; Reducer is kept as the type
// custom, hand-written merges (e.g. for non-struct state) are expressed as.
type Reducer[S any] func(prev, delta S) S

// fieldStrategy names a merge behavior for one struct field, attached via a
// `workflow:"..."` struct tag. This replaces the ad-hoc list concatenation
// used for accumulating fields with a declarative sum-type: Overwrite (the
// default), Concat, or Merge.
type fieldStrategy int

const (
	strategyOverwrite fieldStrategy = iota
	strategyConcat
	strategyMerge
)

func tagStrategy(tag string) fieldStrategy {
	switch tag {
	case "concat":
		return strategyConcat
	case "merge":
		return strategyMerge
	default:
		return strategyOverwrite
	}
}

// MergeState applies delta onto current using the reducers declared via
// `workflow` struct tags on S's fields, refreshes LastUpdated to now, and
// key-wise unions the Outputs map. It never mutates current or delta; it
// returns a fresh value.
//
// Invariant: for a field f with no corresponding value set in delta (the
// zero value for f's type), merge leaves current's value for f unchanged —
// r(a, delta) = a when delta does not mention f.
func MergeState[S Stateful[S]](current, delta S, now time.Time) S {
	merged := mergeFields(current, delta)

	curMeta := current.Meta()
	deltaMeta := delta.Meta()

	outputs := make(map[string]any, len(curMeta.Outputs)+len(deltaMeta.Outputs))
	for k, v := range curMeta.Outputs {
		outputs[k] = v
	}
	for k, v := range deltaMeta.Outputs {
		outputs[k] = v
	}

	executionID := curMeta.ExecutionID
	if deltaMeta.ExecutionID != "" {
		executionID = deltaMeta.ExecutionID
	}

	return merged.WithMeta(Meta{
		ExecutionID: executionID,
		LastUpdated: now,
		Outputs:     outputs,
	})
}

// mergeFields reflects over current and delta (which share S's underlying
// struct shape) and produces a new S whose fields are combined per-field
// according to their workflow tag.
func mergeFields[S any](current, delta S) S {
	curVal := reflect.ValueOf(current)
	deltaVal := reflect.ValueOf(delta)

	if curVal.Kind() != reflect.Struct {
		if !deltaVal.IsZero() {
			return delta
		}
		return current
	}

	out := reflect.New(curVal.Type()).Elem()
	out.Set(curVal)

	t := curVal.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		strategy := tagStrategy(f.Tag.Get("workflow"))
		curField := curVal.Field(i)
		deltaField := deltaVal.Field(i)

		switch strategy {
		case strategyConcat:
			if deltaField.Kind() == reflect.Slice && deltaField.Len() > 0 {
				merged := reflect.AppendSlice(cloneSlice(curField), deltaField)
				out.Field(i).Set(merged)
			}
		case strategyMerge:
			if deltaField.Kind() == reflect.Map && !deltaField.IsNil() {
				out.Field(i).Set(mergeMap(curField, deltaField))
			}
		default:
			if !deltaField.IsZero() {
				out.Field(i).Set(deltaField)
			}
		}
	}

	return out.Interface().(S)
}

func cloneSlice(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Slice || v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0)
	}
	out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(out, v)
	return out
}

func mergeMap(cur, delta reflect.Value) reflect.Value {
	out := reflect.MakeMap(cur.Type())
	if cur.Kind() == reflect.Map && !cur.IsNil() {
		for _, k := range cur.MapKeys() {
			out.SetMapIndex(k, cur.MapIndex(k))
		}
	}
	for _, k := range delta.MapKeys() {
		out.SetMapIndex(k, delta.MapIndex(k))
	}
	return out
}

var metaType = reflect.TypeOf(Meta{})

// MergeParallelDeltas combines the deltas returned by a set of parallel
// fan-out children, in deterministic child order: for overwrite fields the
// first child to set a non-zero value wins; concat fields append every
// child's slice in order; merge-map fields union every child's map,
// first-seen key winning on conflicts. Outputs follows the same
// first-target-wins rule. base is the pre-fan-out state the children
// forked from.
func MergeParallelDeltas[S Stateful[S]](base S, deltas []S) S {
	merged := mergeFieldsMulti(base, deltas)

	baseMeta := base.Meta()
	outputs := make(map[string]any, len(baseMeta.Outputs))
	for k, v := range baseMeta.Outputs {
		outputs[k] = v
	}
	for _, d := range deltas {
		for k, v := range d.Meta().Outputs {
			if _, exists := outputs[k]; !exists {
				outputs[k] = v
			}
		}
	}

	return merged.WithMeta(Meta{
		ExecutionID: baseMeta.ExecutionID,
		LastUpdated: time.Now(),
		Outputs:     outputs,
	})
}

func mergeFieldsMulti[S any](base S, deltas []S) S {
	baseVal := reflect.ValueOf(base)
	if baseVal.Kind() != reflect.Struct {
		for _, d := range deltas {
			if !reflect.ValueOf(d).IsZero() {
				return d
			}
		}
		return base
	}

	t := baseVal.Type()
	out := reflect.New(t).Elem()
	out.Set(baseVal)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type == metaType {
			continue
		}
		strategy := tagStrategy(f.Tag.Get("workflow"))
		field := out.Field(i)

		switch strategy {
		case strategyConcat:
			for _, d := range deltas {
				dv := reflect.ValueOf(d).Field(i)
				if dv.Kind() == reflect.Slice && dv.Len() > 0 {
					field.Set(reflect.AppendSlice(cloneSlice(field), dv))
				}
			}
		case strategyMerge:
			for _, d := range deltas {
				dv := reflect.ValueOf(d).Field(i)
				if dv.Kind() == reflect.Map && !dv.IsNil() {
					field.Set(mergeMapFirstWins(field, dv))
				}
			}
		default:
			for _, d := range deltas {
				dv := reflect.ValueOf(d).Field(i)
				if !dv.IsZero() {
					field.Set(dv)
					break
				}
			}
		}
	}

	return out.Interface().(S)
}

func mergeMapFirstWins(cur, delta reflect.Value) reflect.Value {
	out := reflect.MakeMap(cur.Type())
	if cur.Kind() == reflect.Map && !cur.IsNil() {
		for _, k := range cur.MapKeys() {
			out.SetMapIndex(k, cur.MapIndex(k))
		}
	}
	for _, k := range delta.MapKeys() {
		if !out.MapIndex(k).IsValid() {
			out.SetMapIndex(k, delta.MapIndex(k))
		}
	}
	return out
}
