// Package highlight re-applies highlight markup returned by the document store
// onto the full field values of each hit.
package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/databill86/dp-conceptual-search/internal/domain"
	"github.com/databill86/dp-conceptual-search/internal/domain/field"
	"github.com/databill86/dp-conceptual-search/internal/domain/hit"
)

// Default marker tag and minimum token size.
const (
	DefaultTag          = "strong"
	DefaultMinTokenSize = 2
)

// Reconciler maps highlight fragments back onto hit fields.
type Reconciler struct {
	reg          *field.Registry
	startTag     string
	endTag       string
	minTokenSize int
}

// NewReconciler creates a Reconciler marking tokens with <tag></tag>. Tokens of
// minTokenSize runes or fewer are never marked.
func NewReconciler(reg *field.Registry, tag string, minTokenSize int) *Reconciler {
	if tag == "" {
		tag = DefaultTag
	}
	if minTokenSize < 0 {
		minTokenSize = DefaultMinTokenSize
	}
	return &Reconciler{
		reg:          reg,
		startTag:     "<" + tag + ">",
		endTag:       "</" + tag + ">",
		minTokenSize: minTokenSize,
	}
}

// Reconcile returns marked copies of hits, in order. The input hits are not
// modified. Paths that cannot be resolved are skipped and reported in the
// second return value; they never fail the batch.
func (r *Reconciler) Reconcile(hits []hit.Hit) ([]hit.Hit, []error) {
	out := make([]hit.Hit, 0, len(hits))
	var skipped []error
	for _, h := range hits {
		marked, errs := r.reconcileHit(h)
		out = append(out, marked)
		skipped = append(skipped, errs...)
	}
	return out, skipped
}

// target groups the highlighted paths written to one field.
type target struct {
	sources []string
	tokens  []string
}

func (r *Reconciler) reconcileHit(h hit.Hit) (hit.Hit, []error) {
	out := h.Clone()
	if len(h.Highlight()) == 0 {
		return out, nil
	}

	paths := make([]string, 0, len(h.Highlight()))
	for p := range h.Highlight() {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	targets := make(map[string]*target)
	var order []string
	for _, p := range paths {
		tokens := r.tokens(h.Highlight()[p])
		if len(tokens) == 0 {
			continue
		}
		dest := r.reg.DisplayPath(p)
		t, ok := targets[dest]
		if !ok {
			t = &target{}
			targets[dest] = t
			order = append(order, dest)
		}
		t.sources = append(t.sources, p)
		t.tokens = append(t.tokens, tokens...)
	}

	var errs []error
	for _, dest := range order {
		t := targets[dest]
		value, err := resolve(h, t.sources, dest)
		if err != nil {
			errs = append(errs, domain.NewError(domain.StageHighlight, strings.Join(t.sources, ","), err))
			continue
		}

		var marked hit.Value
		switch value.Kind() {
		case hit.KindString:
			marked = hit.String(r.mark(r.matcher(t.tokens), value.Str()))
		case hit.KindList:
			re := r.matcher(t.tokens)
			list := value.Strings()
			vals := make([]string, len(list))
			for i, s := range list {
				vals[i] = r.mark(re, s)
			}
			marked = hit.List(vals)
		default:
			continue
		}

		if err := out.Set(dest, marked); err != nil {
			errs = append(errs, domain.NewError(domain.StageHighlight, dest, err))
		}
	}
	return out, errs
}

// resolve reads the unmarked value from the first resolvable source, raw
// variants before the display path.
func resolve(h hit.Hit, sources []string, dest string) (hit.Value, error) {
	candidates := make([]string, 0, len(sources)+1)
	for _, s := range sources {
		if s != dest {
			candidates = append(candidates, s)
		}
	}
	candidates = append(candidates, dest)

	var firstErr error
	for _, c := range candidates {
		v, err := h.Lookup(c)
		if err == nil {
			return v, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return hit.Value{}, firstErr
}

// tokens extracts every marked token from fragments, dropping short ones and
// case-insensitive duplicates.
func (r *Reconciler) tokens(fragments []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, frag := range fragments {
		rest := frag
		for {
			i := strings.Index(rest, r.startTag)
			if i < 0 {
				break
			}
			rest = rest[i+len(r.startTag):]
			j := strings.Index(rest, r.endTag)
			if j < 0 {
				break
			}
			tok := rest[:j]
			rest = rest[j+len(r.endTag):]

			if utf8.RuneCountInString(tok) <= r.minTokenSize {
				continue
			}
			key := strings.ToLower(tok)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// matcher compiles a case-insensitive literal alternation of tokens, longest
// first so overlapping tokens resolve to the longer match.
func (r *Reconciler) matcher(tokens []string) *regexp.Regexp {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile("(?i)" + strings.Join(quoted, "|"))
}

// mark wraps every match of re in s in one pass, so markers never nest.
func (r *Reconciler) mark(re *regexp.Regexp, s string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return r.startTag + m + r.endTag
	})
}
