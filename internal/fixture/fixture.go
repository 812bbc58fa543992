// Package fixture replays reference-output cases: each case is a sequence
// of print calls whose bytes must match an expected transcript exactly.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mikey-austin/simplert/internal/adapters/sink"
	"github.com/mikey-austin/simplert/pkg/rtproto"
)

// Call operations.
const (
	OpPrint   = "print"
	OpPrintln = "println"
	OpNewline = "newline"
)

// Suite is one fixture file.
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`

	// Path is the file the suite was loaded from, empty for suites built in code.
	Path string `yaml:"-"`
}

// Case is a named sequence of calls and the bytes they must produce.
type Case struct {
	Name       string  `yaml:"name"`
	Encoding   string  `yaml:"encoding,omitempty"`
	Calls      []Call  `yaml:"calls"`
	Expect     *string `yaml:"expect,omitempty"`
	ExpectFile string  `yaml:"expect_file,omitempty"`

	want []byte
}

// Call is one print operation.
type Call struct {
	Op                string `yaml:"op"`
	rtproto.WireValue `yaml:",inline"`
}

// Load reads and validates a fixture file. Reference files named by
// expect_file are resolved relative to the fixture.
func Load(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read fixture: %w", err)
	}
	suite, err := Parse(data)
	if err != nil {
		return Suite{}, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	dir := filepath.Dir(path)
	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.ExpectFile == "" {
			continue
		}
		ref := c.ExpectFile
		if !filepath.IsAbs(ref) {
			ref = filepath.Join(dir, ref)
		}
		want, err := os.ReadFile(ref)
		if err != nil {
			return Suite{}, fmt.Errorf("%s: case %q: %w", path, c.Name, err)
		}
		c.want = want
	}
	return suite, nil
}

// Parse decodes a fixture document. Cases using expect_file carry no
// expectation until loaded through Load.
func Parse(data []byte) (Suite, error) {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return Suite{}, fmt.Errorf("parse fixture: %w", err)
	}
	if len(suite.Cases) == 0 {
		return Suite{}, errors.New("fixture has no cases")
	}
	seen := map[string]bool{}
	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
		if seen[c.Name] {
			return Suite{}, fmt.Errorf("duplicate case %q", c.Name)
		}
		seen[c.Name] = true
		if err := c.validate(); err != nil {
			return Suite{}, fmt.Errorf("case %q: %w", c.Name, err)
		}
		if c.Expect != nil {
			c.want = []byte(*c.Expect)
		}
	}
	return suite, nil
}

func (c Case) validate() error {
	if (c.Expect == nil) == (c.ExpectFile == "") {
		return errors.New("exactly one of expect or expect_file is required")
	}
	if _, err := sink.LookupEncoding(c.Encoding); err != nil {
		return err
	}
	for i, call := range c.Calls {
		switch call.Op {
		case OpPrint, OpPrintln:
			if call.Type == "" {
				return fmt.Errorf("call %d: %s needs a type", i+1, call.Op)
			}
		case OpNewline:
		default:
			return fmt.Errorf("call %d: unknown op %q", i+1, call.Op)
		}
	}
	return nil
}

// Want returns the expected transcript.
func (c Case) Want() []byte {
	return c.want
}
