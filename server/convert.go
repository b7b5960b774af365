package server

import (
	"fmt"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Isabellarossi/edgedb/service"
	"github.com/Isabellarossi/edgedb/stats"
)

func eventToProto(ev service.Event) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":          structpb.NewStringValue(ev.ID),
		"query":       structpb.NewStringValue(ev.Query),
		"key":         structpb.NewStringValue(ev.Key),
		"fingerprint": structpb.NewStringValue(formatFingerprint(ev.Fingerprint)),
		"variables":   stringList(ev.Variables),
		"types":       stringList(ev.Types),
		"named_args":  structpb.NewBoolValue(ev.NamedArgs),
		"first_arg":   structpb.NewNumberValue(float64(ev.FirstArg)),
		"outcome":     structpb.NewStringValue(ev.Outcome.String()),
		"skipped":     structpb.NewStringValue(ev.Skipped),
		"hot":         structpb.NewBoolValue(ev.Hot),
		"error":       structpb.NewStringValue(ev.Error),
		"error_kind":  structpb.NewStringValue(ev.ErrorKind),
		"start_time":  timestampValue(timestamppb.New(ev.StartTime)),
		"duration":    durationValue(durationpb.New(ev.Duration)),
	}}
}

func eventFromProto(s *structpb.Struct) (service.Event, error) {
	f := s.GetFields()
	ev := service.Event{
		ID:        f["id"].GetStringValue(),
		Query:     f["query"].GetStringValue(),
		Key:       f["key"].GetStringValue(),
		Variables: fromStringList(f["variables"]),
		Types:     fromStringList(f["types"]),
		NamedArgs: f["named_args"].GetBoolValue(),
		FirstArg:  int(f["first_arg"].GetNumberValue()),
		Skipped:   f["skipped"].GetStringValue(),
		Hot:       f["hot"].GetBoolValue(),
		Error:     f["error"].GetStringValue(),
		ErrorKind: f["error_kind"].GetStringValue(),
	}

	var err error
	if ev.Fingerprint, err = parseFingerprint(f["fingerprint"].GetStringValue()); err != nil {
		return service.Event{}, err
	}
	if ev.Outcome, err = service.ParseOutcome(f["outcome"].GetStringValue()); err != nil {
		return service.Event{}, fmt.Errorf("server: decode event: %w", err)
	}
	if ev.StartTime, err = timestampFromValue(f["start_time"]); err != nil {
		return service.Event{}, fmt.Errorf("server: decode start_time: %w", err)
	}
	if ev.Duration, err = durationFromValue(f["duration"]); err != nil {
		return service.Event{}, fmt.Errorf("server: decode duration: %w", err)
	}
	return ev, nil
}

func statsToProto(rows []stats.KeyStat) *structpb.ListValue {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(rows))}
	for _, r := range rows {
		list.Values = append(list.Values, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"fingerprint": structpb.NewStringValue(formatFingerprint(r.Fingerprint)),
			"key":         structpb.NewStringValue(r.Key),
			"variables":   structpb.NewNumberValue(float64(r.Variables)),
			"hits":        structpb.NewNumberValue(float64(r.Hits)),
			"last_seen":   timestampValue(timestamppb.New(r.LastSeen)),
		}}))
	}
	return list
}

func statsFromProto(list *structpb.ListValue) ([]stats.KeyStat, error) {
	out := make([]stats.KeyStat, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		f := v.GetStructValue().GetFields()
		fp, err := parseFingerprint(f["fingerprint"].GetStringValue())
		if err != nil {
			return nil, err
		}
		seen, err := timestampFromValue(f["last_seen"])
		if err != nil {
			return nil, fmt.Errorf("server: decode last_seen: %w", err)
		}
		out = append(out, stats.KeyStat{
			Fingerprint: fp,
			Key:         f["key"].GetStringValue(),
			Variables:   int(f["variables"].GetNumberValue()),
			Hits:        int64(f["hits"].GetNumberValue()),
			LastSeen:    seen,
		})
	}
	return out, nil
}

// Timestamps and durations travel as {seconds, nanos} objects, the fields
// of timestamppb.Timestamp and durationpb.Duration.
func timestampValue(ts *timestamppb.Timestamp) *structpb.Value {
	return secondsNanos(ts.GetSeconds(), ts.GetNanos())
}

func durationValue(d *durationpb.Duration) *structpb.Value {
	return secondsNanos(d.GetSeconds(), d.GetNanos())
}

func secondsNanos(sec int64, nanos int32) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"seconds": structpb.NewNumberValue(float64(sec)),
		"nanos":   structpb.NewNumberValue(float64(nanos)),
	}})
}

func timestampFromValue(v *structpb.Value) (time.Time, error) {
	f := v.GetStructValue().GetFields()
	ts := &timestamppb.Timestamp{
		Seconds: int64(f["seconds"].GetNumberValue()),
		Nanos:   int32(f["nanos"].GetNumberValue()),
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, fmt.Errorf("timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

func durationFromValue(v *structpb.Value) (time.Duration, error) {
	f := v.GetStructValue().GetFields()
	d := &durationpb.Duration{
		Seconds: int64(f["seconds"].GetNumberValue()),
		Nanos:   int32(f["nanos"].GetNumberValue()),
	}
	if err := d.CheckValid(); err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	return d.AsDuration(), nil
}

func stringList(ss []string) *structpb.Value {
	vals := make([]*structpb.Value, len(ss))
	for i, s := range ss {
		vals[i] = structpb.NewStringValue(s)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func fromStringList(v *structpb.Value) []string {
	vals := v.GetListValue().GetValues()
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, len(vals))
	for i, e := range vals {
		out[i] = e.GetStringValue()
	}
	return out
}

// Fingerprints are sent as 16 hex digits; a Struct number is a double and
// cannot hold every uint64.
func formatFingerprint(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

func parseFingerprint(s string) (uint64, error) {
	fp, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("server: decode fingerprint: %w", err)
	}
	return fp, nil
}
