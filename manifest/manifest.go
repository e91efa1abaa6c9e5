// Package manifest handles capsule.toml project configuration: class
// declarations, fixture object graphs and actor declarations.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chazu/capsule/vm"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("capsule.manifest")

// FileNames lists the manifest names searched for, in order.
var FileNames = []string{"capsule.toml", "capsule.yaml", "capsule.yml"}

// Manifest represents a capsule.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project" yaml:"project"`
	Log     LogConfig    `toml:"log" yaml:"log"`
	Classes []ClassDecl  `toml:"class" yaml:"classes"`
	Objects []ObjectDecl `toml:"object" yaml:"objects"`
	Actors  []ActorDecl  `toml:"actor" yaml:"actors"`

	// Path is the manifest file (set at load time).
	Path string `toml:"-" yaml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`
}

// LogConfig configures logging for tools loading the manifest.
type LogConfig struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	File      string `toml:"file" yaml:"file"`
}

// ClassDecl declares a class.
type ClassDecl struct {
	Name       string   `toml:"name" yaml:"name"`
	Superclass string   `toml:"superclass" yaml:"superclass"`
	Fields     []string `toml:"fields" yaml:"fields"`
	Transfer   bool     `toml:"transfer" yaml:"transfer"`
	Capability string   `toml:"capability" yaml:"capability"`
}

// Object kinds accepted in ObjectDecl.Kind.
const (
	KindObject = "object"
	KindArray  = "array"
)

// ObjectDecl declares a fixture object. Field and element values are
// literals: integers, floats, booleans, strings, "#symbol" for symbols and
// "@id" for a reference to another declared object.
type ObjectDecl struct {
	ID         string         `toml:"id" yaml:"id"`
	Class      string         `toml:"class" yaml:"class"`
	Kind       string         `toml:"kind" yaml:"kind"`
	Capability string         `toml:"capability" yaml:"capability"`
	Fields     map[string]any `toml:"fields" yaml:"fields"`
	Elements   []any          `toml:"elements" yaml:"elements"`
	Length     int            `toml:"length" yaml:"length"`
}

// ActorDecl declares an actor.
type ActorDecl struct {
	Name       string `toml:"name" yaml:"name"`
	Capability string `toml:"capability" yaml:"capability"`
	Mailbox    int    `toml:"mailbox" yaml:"mailbox"`
}

// Load finds a manifest in dir (capsule.toml, then capsule.yaml/.yml) and
// loads it.
func Load(dir string) (*Manifest, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, fmt.Errorf("no %s in %s", strings.Join(FileNames, " or "), dir)
}

// LoadFile parses a manifest file, choosing TOML or YAML by extension.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
	}

	m.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	m.applyDefaults()
	log.Debugf("loaded %s: %d classes, %d objects, %d actors", m.Path, len(m.Classes), len(m.Objects), len(m.Actors))
	return &m, nil
}

// FindAndLoad walks up from startDir to find a manifest file, then loads
// and returns it. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return LoadFile(path)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Project.Name == "" {
		m.Project.Name = strings.TrimSuffix(filepath.Base(filepath.Dir(m.Path)), "/")
	}
	for i := range m.Objects {
		if m.Objects[i].Kind == "" {
			m.Objects[i].Kind = KindObject
		}
	}
	for i := range m.Actors {
		if m.Actors[i].Capability == "" {
			m.Actors[i].Capability = vm.Isolate.String()
		}
	}
}

// Validate checks the manifest for dangling names, duplicates and bad
// capability names. All problems are reported together.
func (m *Manifest) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	checkCap := func(what, name string) {
		if name == "" {
			return
		}
		if _, err := vm.ParseCapability(name); err != nil {
			add("%s: %v", what, err)
		}
	}

	classes := make(map[string]*ClassDecl, len(m.Classes))
	for i := range m.Classes {
		c := &m.Classes[i]
		if c.Name == "" {
			add("class #%d has no name", i+1)
			continue
		}
		if _, dup := classes[c.Name]; dup {
			add("class %q declared twice", c.Name)
		}
		classes[c.Name] = c
		checkCap(fmt.Sprintf("class %q", c.Name), c.Capability)
	}
	for _, c := range m.Classes {
		if c.Superclass != "" && classes[c.Superclass] == nil {
			add("class %q: unknown superclass %q", c.Name, c.Superclass)
		}
	}
	if _, err := classOrder(m.Classes); err != nil {
		errs = append(errs, err)
	}

	ids := make(map[string]bool, len(m.Objects))
	for i, o := range m.Objects {
		if o.ID == "" {
			add("object #%d has no id", i+1)
			continue
		}
		if ids[o.ID] {
			add("object %q declared twice", o.ID)
		}
		ids[o.ID] = true
	}
	for _, o := range m.Objects {
		what := fmt.Sprintf("object %q", o.ID)
		checkCap(what, o.Capability)
		c := classes[o.Class]
		if c == nil {
			add("%s: unknown class %q", what, o.Class)
		}
		switch o.Kind {
		case KindObject, "":
			if len(o.Elements) > 0 {
				add("%s: elements given for a non-array object", what)
			}
			for name, v := range o.Fields {
				if c != nil && !hasField(classes, c, name) {
					add("%s: class %q has no field %q", what, o.Class, name)
				}
				if err := checkLiteral(v, ids); err != nil {
					add("%s field %q: %v", what, name, err)
				}
			}
		case KindArray:
			if len(o.Fields) > 0 {
				add("%s: fields given for an array", what)
			}
			if o.Length != 0 && o.Length < len(o.Elements) {
				add("%s: length %d shorter than %d elements", what, o.Length, len(o.Elements))
			}
			for i, v := range o.Elements {
				if err := checkLiteral(v, ids); err != nil {
					add("%s element %d: %v", what, i, err)
				}
			}
		default:
			add("%s: unknown kind %q", what, o.Kind)
		}
	}

	actors := make(map[string]bool, len(m.Actors))
	for i, a := range m.Actors {
		if a.Name == "" {
			add("actor #%d has no name", i+1)
			continue
		}
		if actors[a.Name] {
			add("actor %q declared twice", a.Name)
		}
		actors[a.Name] = true
		checkCap(fmt.Sprintf("actor %q", a.Name), a.Capability)
	}

	return errors.Join(errs...)
}

func hasField(classes map[string]*ClassDecl, c *ClassDecl, name string) bool {
	seen := map[string]bool{}
	for cur := c; cur != nil && !seen[cur.Name]; cur = classes[cur.Superclass] {
		seen[cur.Name] = true
		for _, f := range cur.Fields {
			if f == name {
				return true
			}
		}
	}
	return false
}
