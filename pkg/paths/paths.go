// Package paths persists surface states and recorded trajectories. The
// wire format is JSON, optionally compressed with raw DEFLATE and wrapped
// in URL-safe base64 so a recording fits in a query string.
package paths

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	errorsmod "cosmossdk.io/errors"

	"github.com/spectralab/zhukovsky/pkg/kinematics"
	"github.com/spectralab/zhukovsky/pkg/surface"
)

var (
	// ErrDecode is returned when an input matches none of the supported
	// encodings.
	ErrDecode = errorsmod.Register("paths", 2, "unrecognized saved state encoding")

	// ErrInvalid is returned when a snapshot decodes but violates a basic
	// invariant of the coupling constants.
	ErrInvalid = errorsmod.Register("paths", 3, "invalid saved state")
)

// SavedState pairs a state with the coupling constants it was built for.
type SavedState struct {
	Consts kinematics.CouplingConstants `json:"consts"`
	State  surface.State                `json:"state"`
}

// SavedPath is a named recording of a state trajectory: the starting
// configuration plus every state visited along the way.
type SavedPath struct {
	Name   string                       `json:"name"`
	Consts kinematics.CouplingConstants `json:"consts"`
	Start  SavedState                   `json:"start"`
	States []surface.State              `json:"states"`
}

// ComponentPaths extracts per-point polylines of one chart from the
// recording: element i is the curve traced by the i-th point of the chain.
func (sp *SavedPath) ComponentPaths(component kinematics.Component) [][]complex128 {
	if len(sp.States) == 0 {
		return nil
	}

	out := make([][]complex128, len(sp.States[0].Points))
	for _, st := range sp.States {
		for i := range st.Points {
			if i < len(out) {
				out[i] = append(out[i], st.Points[i].Get(component))
			}
		}
	}
	return out
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeCompressed(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// Encode serializes the snapshot as plain JSON.
func (ss *SavedState) Encode() (string, error) {
	return encodeJSON(ss)
}

// EncodeCompressed serializes the snapshot as base64-wrapped DEFLATE.
func (ss *SavedState) EncodeCompressed() (string, error) {
	return encodeCompressed(ss)
}

// Encode serializes the recording as plain JSON.
func (sp *SavedPath) Encode() (string, error) {
	return encodeJSON(sp)
}

// EncodeCompressed serializes the recording as base64-wrapped DEFLATE.
func (sp *SavedPath) EncodeCompressed() (string, error) {
	return encodeCompressed(sp)
}

// inflate reverses EncodeCompressed back to the JSON text.
func inflate(input string) ([]byte, bool) {
	data, err := base64.URLEncoding.DecodeString(input)
	if err != nil {
		slog.Debug("input is not base64", "err", err)
		return nil, false
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		slog.Debug("input did not inflate", "err", err)
		return nil, false
	}
	return out, true
}

// decodeCascade tries each supported encoding in turn: plain JSON first,
// then base64 + DEFLATE + JSON.
func decodeCascade(input string, v any) error {
	input = strings.TrimSpace(input)

	if err := json.Unmarshal([]byte(input), v); err == nil {
		return nil
	}
	slog.Debug("input is not plain JSON, trying compressed form")

	if data, ok := inflate(input); ok {
		if err := json.Unmarshal(data, v); err == nil {
			return nil
		}
		slog.Debug("inflated input is not JSON")
	}

	return ErrDecode
}

// DecodeState decodes a saved state from any supported encoding.
func DecodeState(input string) (*SavedState, error) {
	var ss SavedState
	if err := decodeCascade(input, &ss); err != nil {
		return nil, errorsmod.Wrap(err, "decoding saved state")
	}
	if err := ss.Consts.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalid, err.Error())
	}
	return &ss, nil
}

// DecodePath decodes a saved path from any supported encoding.
func DecodePath(input string) (*SavedPath, error) {
	var sp SavedPath
	if err := decodeCascade(input, &sp); err != nil {
		return nil, errorsmod.Wrap(err, "decoding saved path")
	}
	if err := sp.Consts.Validate(); err != nil {
		return nil, errorsmod.Wrap(ErrInvalid, err.Error())
	}
	return &sp, nil
}
