package gemfile

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Constraints wraps the semver constraint set a Gem's VersionSpecs
// translate to (SPEC_FULL.md §5.1), grounded on
// other_examples/contriboss-gemfile-go's use of
// github.com/Masterminds/semver/v3 for the same domain object.
type Constraints struct {
	c *semver.Constraints
}

// Check reports whether version satisfies every version spec.
func (c *Constraints) Check(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, errors.Wrapf(err, "parsing version %q", version)
	}
	return c.c.Check(v), nil
}

func (c *Constraints) String() string { return c.c.String() }

// parseConstraints translates RubyGems version-spec strings (e.g.
// "~> 1.2", ">= 1.0", "1.4.2") into a single semver.Constraints,
// rewriting the pessimistic `~>` operator into the `>=, <` range RubyGems
// itself expands it to.
func parseConstraints(specs []string) (*Constraints, error) {
	if len(specs) == 0 {
		return nil, errors.New("gemfile: no version specs to parse")
	}
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		p, err := translateSpec(s)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	sc, err := semver.NewConstraint(strings.Join(parts, ", "))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing version specs %v", specs)
	}
	return &Constraints{c: sc}, nil
}

// translateSpec handles the pessimistic `~>` operator: `~> 1.2` becomes
// `>= 1.2.0, < 1.3.0`; `~> 1.2.3` becomes `>= 1.2.3, < 1.3.0`. Every other
// RubyGems operator (`=`, `!=`, `>`, `<`, `>=`, `<=`) already has an
// identical meaning in semver constraint syntax and passes through.
func translateSpec(spec string) (string, error) {
	spec = strings.TrimSpace(spec)
	if !strings.HasPrefix(spec, "~>") {
		return spec, nil
	}
	version := strings.TrimSpace(strings.TrimPrefix(spec, "~>"))
	segs := strings.Split(version, ".")
	for len(segs) < 3 {
		segs = append(segs, "0")
	}
	upperSegs := append([]string{}, segs[:len(segs)-1]...)
	last, err := bumpLast(upperSegs)
	if err != nil {
		return "", errors.Wrapf(err, "parsing pessimistic version %q", spec)
	}
	lower := strings.Join(segs, ".")
	return ">= " + lower + ", < " + last, nil
}

func bumpLast(segs []string) (string, error) {
	n, err := atoiStrict(segs[len(segs)-1])
	if err != nil {
		return "", err
	}
	out := append([]string{}, segs[:len(segs)-1]...)
	out = append(out, itoaStrict(n+1))
	for len(out) < 3 {
		out = append(out, "0")
	}
	return strings.Join(out, "."), nil
}

func atoiStrict(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("gemfile: not a numeric version segment: %q", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func itoaStrict(n int) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}
