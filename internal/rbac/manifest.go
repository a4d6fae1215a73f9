package rbac

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Capabilities []CapabilityDeclaration `yaml:"capabilities"`
}

// LoadManifest decodes capability declarations from a YAML document of the form
//
//	capabilities:
//	  - name: Manage polls
//	    system_name: Polls.Manage
//	    category: ContentManagement
//	    default_roles: [Administrators]
//
// Unknown fields are rejected. An empty document yields no declarations.
func LoadManifest(r io.Reader) ([]CapabilityDeclaration, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("rbac: decode manifest: %w", err)
	}
	return m.Capabilities, nil
}

// LoadManifestDir loads every *.yaml and *.yml manifest in dir, in file name order.
func LoadManifestDir(dir string) ([]CapabilityDeclaration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rbac: read manifest dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var decls []CapabilityDeclaration
	for _, name := range names {
		loaded, err := loadManifestFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		decls = append(decls, loaded...)
	}
	return decls, nil
}

func loadManifestFile(path string) ([]CapabilityDeclaration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: open manifest: %w", err)
	}
	defer f.Close()
	decls, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return decls, nil
}
