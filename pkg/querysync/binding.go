package querysync

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/urlstate-go/urlstate/pkg/nav"
	"github.com/urlstate-go/urlstate/pkg/reactive"
	"github.com/urlstate-go/urlstate/pkg/store"
)

// Binding connects one store to the URL. It is created by Manager.Attach
// and drives both sync directions: the one-shot inbound pass after the
// navigator is ready, and the outbound pass on every mutation batch.
type Binding struct {
	store    *store.Store
	fields   []FieldSpec
	nav      nav.Navigator
	navMu    *sync.Mutex
	logger   *slog.Logger
	observer Observer
	presets  map[string]any

	// mu serializes this binding's passes. Field codecs run under it,
	// which is why codecs must not mutate attached stores.
	mu sync.Mutex

	// defaults holds the raw post-override values captured by the first
	// inbound pass. defaultsEnc caches their serialized form, filled
	// lazily the first time the outbound diff needs each field.
	defaults    map[string]any
	defaultsEnc map[string]string

	// snapped guards the capture: defaults are recorded once for the
	// binding's lifetime, never again.
	snapped bool

	synced chan struct{}
}

// start runs the binding lifecycle: wait for navigation to settle, run
// inbound once, then subscribe outbound. If the navigator never becomes
// ready, synchronization for this store silently never starts.
func (b *Binding) start() {
	defer reactive.ReleaseGoroutine()

	<-b.nav.Ready()

	b.runInbound()

	// Outbound subscribes strictly after the inbound pass has finished,
	// so initial hydration can never echo back into the URL as a
	// spurious history entry.
	b.store.Subscribe(b.runOutbound)

	close(b.synced)
}

// Synced returns a channel that closes once the inbound pass has run and
// the outbound subscription is live. Mutations made before it closes may
// not reach the URL until the following mutation.
func (b *Binding) Synced() <-chan struct{} {
	return b.synced
}

// StoreID returns the bound store's identifier.
func (b *Binding) StoreID() string {
	return b.store.ID()
}

// Defaults returns a copy of the captured defaults baseline, keyed by
// field name. Empty until the inbound pass has run.
func (b *Binding) Defaults() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]any, len(b.defaults))
	for k, v := range b.defaults {
		out[k] = v
	}
	return out
}

// ApplyField runs one raw value through the named field's codec and, on
// success, assigns the result to the store. It is the entry point for
// edits that arrive as parameter text from outside the URL (live session
// inputs). Failures return a *ParamError but leave the URL untouched:
// unlike inbound recovery, the rejected text was never in the address
// bar. A successful assignment reaches the URL through the ordinary
// outbound pass.
func (b *Binding) ApplyField(field, raw string) error {
	if strings.Contains(field, ".") {
		return fmt.Errorf("querysync: field %q in store %q is read-only", field, b.store.ID())
	}

	var spec FieldSpec
	for _, f := range b.fields {
		if f.FieldName() == field {
			spec = f
			break
		}
	}
	if spec == nil {
		return fmt.Errorf("%w: %q in store %q", store.ErrFieldUnknown, field, b.store.ID())
	}

	// No b.mu here: the assignment fires the outbound subscription on
	// this goroutine, and that pass takes the lock itself.
	value, perr := b.decodeParam(spec, []string{raw})
	if perr == nil {
		if err := b.store.Assign(spec.FieldName(), value); err != nil {
			perr = &ParamError{
				Store:  b.store.ID(),
				Field:  spec.FieldName(),
				Param:  spec.ParamKey(),
				Raw:    raw,
				Reason: ReasonAssign,
				Err:    err,
			}
		}
	}
	if perr != nil {
		return perr
	}
	return nil
}

// runInbound hydrates the store from the URL: overrides, defaults
// capture, then per-parameter decode, validate, assign. Every failure is
// per-field and non-fatal.
func (b *Binding) runInbound() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.snapped {
		// Defaults were already captured; a second hydration would
		// corrupt the baseline.
		b.logger.Warn("inbound pass already ran, skipping")
		return
	}

	start := time.Now()

	b.applyPresets()
	b.captureDefaults()

	b.navMu.Lock()
	query := b.nav.Query()
	b.navMu.Unlock()

	applied, recovered := 0, 0
	for _, f := range b.fields {
		vs, present := query[f.ParamKey()]
		if !present {
			continue
		}

		if strings.Contains(f.FieldName(), ".") {
			// Dotted fields are outbound-only diagnostics.
			b.logger.Debug("nested field is read-only, ignoring inbound parameter",
				"field", f.FieldName(), "param", f.ParamKey())
			continue
		}

		value, perr := b.decodeParam(f, vs)
		if perr == nil {
			if err := b.store.Assign(f.FieldName(), value); err != nil {
				perr = &ParamError{
					Store:  b.store.ID(),
					Field:  f.FieldName(),
					Param:  f.ParamKey(),
					Raw:    strings.Join(vs, ","),
					Reason: ReasonAssign,
					Err:    err,
				}
			}
		}

		if perr != nil {
			recovered++
			b.recoverParam(perr)
			continue
		}
		applied++
	}

	b.logger.Debug("inbound pass complete",
		"applied", applied, "recovered", recovered)
	b.observer.InboundDone(b.store.ID(), applied, recovered, time.Since(start))
}

// applyPresets writes the manager's preset overrides into the store,
// ahead of the defaults capture. A value the store rejects is logged and
// skipped.
func (b *Binding) applyPresets() {
	if len(b.presets) == 0 {
		return
	}

	names := make([]string, 0, len(b.presets))
	for name := range b.presets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := b.store.Assign(name, b.presets[name]); err != nil {
			b.logger.Warn("preset override skipped", "field", name, "error", err)
		}
	}
}

// captureDefaults records the post-override value of every configured
// field as the minimization baseline. Runs exactly once.
func (b *Binding) captureDefaults() {
	b.defaults = make(map[string]any, len(b.fields))
	for _, f := range b.fields {
		v, _ := b.liveValue(f.FieldName())
		b.defaults[f.FieldName()] = v
	}
	b.defaultsEnc = make(map[string]string, len(b.fields))
	b.snapped = true
}

// decodeParam is the decode-and-validate step for one parameter. The
// result is explicitly two-armed: a value to assign, or a ParamError
// naming what went wrong. No control flow by panic; codec panics are
// converted inside FieldSpec.
func (b *Binding) decodeParam(f FieldSpec, vs []string) (any, *ParamError) {
	perr := &ParamError{
		Store: b.store.ID(),
		Field: f.FieldName(),
		Param: f.ParamKey(),
	}

	if len(vs) != 1 {
		perr.Raw = strings.Join(vs, ",")
		perr.Reason = ReasonMultiValue
		return nil, perr
	}
	perr.Raw = vs[0]

	value, err := f.decodeValue(vs[0])
	if err != nil {
		perr.Reason = ReasonDecode
		perr.Err = err
		return nil, perr
	}

	if !f.acceptValue(value) {
		perr.Reason = ReasonRejected
		return nil, perr
	}

	return value, nil
}

// recoverParam handles one unusable parameter: log it with its raw text,
// strip it from the address bar without creating a history entry, and
// leave the field on its default. The query is re-read fresh so earlier
// strips in the same pass are preserved.
func (b *Binding) recoverParam(perr *ParamError) {
	args := []any{
		"param", perr.Param,
		"raw", perr.Raw,
		"reason", string(perr.Reason),
	}
	if perr.Err != nil {
		args = append(args, "error", perr.Err)
	}
	b.logger.Warn("dropping unusable URL parameter", args...)

	b.navMu.Lock()
	q := b.nav.Query()
	q.Del(perr.Param)
	b.nav.ReplaceQuery(q)
	b.navMu.Unlock()

	b.observer.ParamRecovered(perr.Store, perr.Param, perr.Reason)
}

// runOutbound projects the store into the URL after a mutation batch:
// start from the current query, remove parameters equal to their
// default, write the ones that differ, leave foreign parameters alone,
// and push the result as one new history entry. A no-change diff pushes
// nothing.
func (b *Binding) runOutbound() {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()

	// Encode outside the navigator window; codecs are user code.
	type fieldEnc struct {
		param   string
		live    string
		deflt   string
		skipped bool
	}
	encs := make([]fieldEnc, 0, len(b.fields))
	for _, f := range b.fields {
		live, _ := b.liveValue(f.FieldName())
		liveEnc, err := f.encodeValue(live)
		if err != nil {
			b.logger.Error("field serializer failed, leaving parameter untouched",
				"field", f.FieldName(), "param", f.ParamKey(), "error", err)
			encs = append(encs, fieldEnc{param: f.ParamKey(), skipped: true})
			continue
		}
		encs = append(encs, fieldEnc{
			param: f.ParamKey(),
			live:  liveEnc,
			deflt: b.encodedDefault(f),
		})
	}

	b.navMu.Lock()
	current := b.nav.Query()
	next := nav.CloneQuery(current)

	set, removed := 0, 0
	for _, e := range encs {
		if e.skipped {
			continue
		}
		if e.live == e.deflt {
			if _, present := next[e.param]; present {
				next.Del(e.param)
				removed++
			}
		} else if len(next[e.param]) != 1 || next.Get(e.param) != e.live {
			next.Set(e.param, e.live)
			set++
		}
	}

	pushed := false
	if nav.EncodeQuery(next) != nav.EncodeQuery(current) {
		b.nav.PushQuery(next)
		pushed = true
	}
	b.navMu.Unlock()

	b.observer.OutboundDone(b.store.ID(), set, removed, pushed, time.Since(start))
}

// encodedDefault returns the serialized defaults-baseline value for f,
// computing and caching it on first use.
func (b *Binding) encodedDefault(f FieldSpec) string {
	if enc, ok := b.defaultsEnc[f.FieldName()]; ok {
		return enc
	}

	enc, err := f.encodeValue(b.defaults[f.FieldName()])
	if err != nil {
		b.logger.Error("default serializer failed, treating default as empty",
			"field", f.FieldName(), "error", err)
		enc = ""
	}
	b.defaultsEnc[f.FieldName()] = enc
	return enc
}

// liveValue reads the current value behind a field name. A dotted name
// reads its first segment from the store and resolves the remainder into
// the value; absence is (nil, false), never an error.
func (b *Binding) liveValue(name string) (any, bool) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		root, ok := b.store.Value(name[:i])
		if !ok {
			return nil, false
		}
		return Resolve(root, name[i+1:])
	}
	return b.store.Value(name)
}
