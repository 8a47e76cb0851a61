package store

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
)

// marshalOptions converts emit options to JSON TEXT for storage.
// HTML escaping is disabled so prefixes round-trip byte for byte.
func marshalOptions(opts emit.Options) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(opts); err != nil {
		return "", errors.Wrap(err, "marshal options")
	}
	// Encoder adds a trailing newline
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalOptions parses stored options. An empty column is the zero value.
func unmarshalOptions(data string) (emit.Options, error) {
	var opts emit.Options
	if data == "" {
		return opts, nil
	}
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		return opts, errors.Wrap(err, "unmarshal options")
	}
	return opts, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse timestamp %q", s)
	}
	return t, nil
}
