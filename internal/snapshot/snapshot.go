// Package snapshot encodes oracle states to compact binary blobs and back,
// so a generation session can be suspended (across an HTTP request boundary,
// or a daemon restart) and later resumed exactly where it was.
//
// The wire format is REZI: each snapshot is a kind tag followed by the
// state's fields, and the whole thing round-trips through a single
// rezi.EncBinary/DecBinary pair.
package snapshot

import (
	"fmt"

	"github.com/dekarrin/rezi"

	"github.com/dekarrin/gramoracle/internal/lroracle"
	"github.com/dekarrin/gramoracle/internal/regexoracle"
)

// Kind tags which oracle family a snapshot belongs to. A snapshot taken from
// one oracle must never be resumed into another; the tag is how that is
// caught at decode time.
type Kind int

const (
	KindRegex Kind = iota
	KindLR
)

func (k Kind) String() string {
	switch k {
	case KindRegex:
		return "regex"
	case KindLR:
		return "lr"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Snapshot is a suspended oracle state. Exactly one of the two state fields
// is meaningful, selected by Kind.
type Snapshot struct {
	Kind Kind

	Regex regexoracle.State
	LR    lroracle.Parts
}

// OfRegex captures a regex oracle state.
func OfRegex(s regexoracle.State) Snapshot {
	return Snapshot{Kind: KindRegex, Regex: s}
}

// OfLR captures an LR(1) oracle state. ok is false when s is the invalid
// sentinel, which has nothing worth suspending.
func OfLR(s lroracle.State) (Snapshot, bool) {
	parts, ok := s.Parts()
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{Kind: KindLR, LR: parts}, true
}

// LRState rebuilds the LR(1) state held by the snapshot. It errors if the
// snapshot is not KindLR.
func (snap Snapshot) LRState() (lroracle.State, error) {
	if snap.Kind != KindLR {
		return lroracle.State{}, fmt.Errorf("snapshot holds a %s state, not an lr state", snap.Kind)
	}
	return lroracle.FromParts(snap.LR), nil
}

// RegexState returns the regex state held by the snapshot. It errors if the
// snapshot is not KindRegex.
func (snap Snapshot) RegexState() (regexoracle.State, error) {
	if snap.Kind != KindRegex {
		return 0, fmt.Errorf("snapshot holds a %s state, not a regex state", snap.Kind)
	}
	return snap.Regex, nil
}

// MarshalBinary encodes the snapshot in REZI format.
func (snap Snapshot) MarshalBinary() ([]byte, error) {
	var enc []byte

	enc = append(enc, rezi.EncInt(int(snap.Kind))...)

	switch snap.Kind {
	case KindRegex:
		enc = append(enc, rezi.EncInt(int(snap.Regex))...)
	case KindLR:
		enc = append(enc, rezi.EncInt(len(snap.LR.Stack))...)
		for _, st := range snap.LR.Stack {
			enc = append(enc, rezi.EncInt(st)...)
		}
		enc = append(enc, rezi.EncInt(snap.LR.LexState)...)
		enc = append(enc, rezi.EncString(string(snap.LR.Pending))...)
		enc = append(enc, rezi.EncBool(snap.LR.HasMatch)...)
		if snap.LR.HasMatch {
			enc = append(enc, rezi.EncString(snap.LR.TokenID)...)
			enc = append(enc, rezi.EncInt(snap.LR.TokenLen)...)
			enc = append(enc, rezi.EncInt(snap.LR.MatchLex)...)
		}
	default:
		return nil, fmt.Errorf("unknown snapshot kind: %d", int(snap.Kind))
	}

	return enc, nil
}

// UnmarshalBinary decodes a snapshot from REZI format.
func (snap *Snapshot) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	var kindVal int
	kindVal, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	data = data[n:]
	snap.Kind = Kind(kindVal)

	switch snap.Kind {
	case KindRegex:
		var stateVal int
		stateVal, _, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("regex state: %w", err)
		}
		snap.Regex = regexoracle.State(stateVal)
	case KindLR:
		var stackLen int
		stackLen, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("stack length: %w", err)
		}
		data = data[n:]

		snap.LR.Stack = make([]int, stackLen)
		for i := 0; i < stackLen; i++ {
			snap.LR.Stack[i], n, err = rezi.DecInt(data)
			if err != nil {
				return fmt.Errorf("stack[%d]: %w", i, err)
			}
			data = data[n:]
		}

		snap.LR.LexState, n, err = rezi.DecInt(data)
		if err != nil {
			return fmt.Errorf("lex state: %w", err)
		}
		data = data[n:]

		var pending string
		pending, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("pending bytes: %w", err)
		}
		data = data[n:]
		snap.LR.Pending = []byte(pending)

		snap.LR.HasMatch, n, err = rezi.DecBool(data)
		if err != nil {
			return fmt.Errorf("match flag: %w", err)
		}
		data = data[n:]

		if snap.LR.HasMatch {
			snap.LR.TokenID, n, err = rezi.DecString(data)
			if err != nil {
				return fmt.Errorf("match token: %w", err)
			}
			data = data[n:]

			snap.LR.TokenLen, n, err = rezi.DecInt(data)
			if err != nil {
				return fmt.Errorf("match length: %w", err)
			}
			data = data[n:]

			snap.LR.MatchLex, _, err = rezi.DecInt(data)
			if err != nil {
				return fmt.Errorf("match lex state: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown snapshot kind: %d", int(snap.Kind))
	}

	return nil
}

// Encode serializes a snapshot to a standalone blob.
func Encode(snap Snapshot) []byte {
	return rezi.EncBinary(snap)
}

// Decode deserializes a blob produced by Encode.
func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	_, err := rezi.DecBinary(data, &snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("REZI decode: %w", err)
	}
	return snap, nil
}
