package gramo

import (
	"fmt"

	"github.com/dekarrin/gramoracle/internal/lroracle"
	"github.com/dekarrin/gramoracle/internal/regexoracle"
	"github.com/dekarrin/gramoracle/internal/session"
	"github.com/dekarrin/gramoracle/internal/snapshot"
	"github.com/dekarrin/gramoracle/internal/vocab"
)

// regexRunner adapts a regex oracle session to the dao.Runner contract.
type regexRunner struct {
	sesh     *session.Session[regexoracle.State]
	vocabLen int
}

func newRegexRunner(oracle *regexoracle.Oracle) *regexRunner {
	return &regexRunner{
		sesh:     session.New[regexoracle.State](oracle),
		vocabLen: oracle.Vocab().Len(),
	}
}

func (r *regexRunner) Reset()               { r.sesh.Reset() }
func (r *regexRunner) Next(i int)           { r.sesh.Next(i) }
func (r *regexRunner) Feed(p []byte)        { r.sesh.Feed(p) }
func (r *regexRunner) IsMatch() bool        { return r.sesh.IsMatch() }
func (r *regexRunner) IsInvalid() bool      { return r.sesh.IsInvalid() }
func (r *regexRunner) Continuations() []int { return r.sesh.Continuations() }
func (r *regexRunner) VocabLen() int        { return r.vocabLen }

// OnlySkippableMatching is an LR(1) notion; a regex has no skippable tokens.
func (r *regexRunner) OnlySkippableMatching() bool { return false }

func (r *regexRunner) Snapshot() ([]byte, error) {
	s := r.sesh.Get()
	if s.Invalid() {
		return nil, fmt.Errorf("cannot snapshot an invalid state")
	}
	return snapshot.Encode(snapshot.OfRegex(s)), nil
}

func (r *regexRunner) Resume(blob []byte) error {
	snap, err := snapshot.Decode(blob)
	if err != nil {
		return err
	}
	s, err := snap.RegexState()
	if err != nil {
		return err
	}
	r.sesh.Set(s)
	return nil
}

// lrOracle is what both LR(1) oracle variants provide beyond the common
// Constraint contract.
type lrOracle interface {
	session.Constraint[lroracle.State]
	OnlySkippableMatching(s lroracle.State) bool
	Vocab() *vocab.Vocab
}

// lrRunner adapts an LR(1) oracle session to the dao.Runner contract.
type lrRunner struct {
	oracle lrOracle
	sesh   *session.Session[lroracle.State]
}

func newLRRunner(oracle lrOracle) *lrRunner {
	return &lrRunner{
		oracle: oracle,
		sesh:   session.New[lroracle.State](oracle),
	}
}

func (r *lrRunner) VocabLen() int { return r.oracle.Vocab().Len() }

func (r *lrRunner) Reset()               { r.sesh.Reset() }
func (r *lrRunner) Next(i int)           { r.sesh.Next(i) }
func (r *lrRunner) Feed(p []byte)        { r.sesh.Feed(p) }
func (r *lrRunner) IsMatch() bool        { return r.sesh.IsMatch() }
func (r *lrRunner) IsInvalid() bool      { return r.sesh.IsInvalid() }
func (r *lrRunner) Continuations() []int { return r.sesh.Continuations() }

func (r *lrRunner) OnlySkippableMatching() bool {
	return r.oracle.OnlySkippableMatching(r.sesh.Get())
}

func (r *lrRunner) Snapshot() ([]byte, error) {
	snap, ok := snapshot.OfLR(r.sesh.Get())
	if !ok {
		return nil, fmt.Errorf("cannot snapshot an invalid state")
	}
	return snapshot.Encode(snap), nil
}

func (r *lrRunner) Resume(blob []byte) error {
	snap, err := snapshot.Decode(blob)
	if err != nil {
		return err
	}
	s, err := snap.LRState()
	if err != nil {
		return err
	}
	r.sesh.Set(s)
	return nil
}
