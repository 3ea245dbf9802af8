package main

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// xmlDialect mirrors the subset of the MAVLink dialect XML schema this
// generator understands: enums, messages, and <include> composition.
type xmlDialect struct {
	XMLName  xml.Name     `xml:"mavlink"`
	Version  int          `xml:"version"`
	Dialect  int          `xml:"dialect"`
	Includes []string     `xml:"include"`
	Enums    []xmlEnum    `xml:"enums>enum"`
	Messages []xmlMessage `xml:"messages>message"`
}

type xmlEnum struct {
	Name    string     `xml:"name,attr"`
	Bitmask bool       `xml:"bitmask,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Value string `xml:"value,attr"`
	Name  string `xml:"name,attr"`
}

type xmlMessage struct {
	ID          uint32 `xml:"id,attr"`
	Name        string `xml:"name,attr"`
	Description string `xml:"description"`
	InnerXML    string `xml:",innerxml"`

	// Fields and ExtFields are populated by resolveFields from InnerXML,
	// split on the <extensions/> marker: fields before it keep MAVLink's
	// wire-order sort, fields after it (if any) are appended unsorted, in
	// declaration order, matching MAVLink's own v2 extension-field rule.
	Fields    []xmlField
	ExtFields []xmlField
}

// resolveFields splits InnerXML on the first <extensions/> marker (if any)
// and decodes <field> elements from each half independently, since
// encoding/xml's struct tags can't express "repeated elements before vs.
// after one sentinel sibling" directly.
func (m *xmlMessage) resolveFields() error {
	const marker = "<extensions"
	body := m.InnerXML
	head, tail := body, ""
	if i := indexOf(body, marker); i >= 0 {
		head, tail = body[:i], body[i:]
	}
	var err error
	if m.Fields, err = decodeFields(head); err != nil {
		return fmt.Errorf("message %s: %w", m.Name, err)
	}
	if m.ExtFields, err = decodeFields(tail); err != nil {
		return fmt.Errorf("message %s extension fields: %w", m.Name, err)
	}
	return nil
}

func decodeFields(fragment string) ([]xmlField, error) {
	if fragment == "" {
		return nil, nil
	}
	wrapped := "<f>" + fragment + "</f>"
	var wrapper struct {
		Fields []xmlField `xml:"field"`
	}
	if err := xml.Unmarshal([]byte(wrapped), &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Fields, nil
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

type xmlField struct {
	Type string `xml:"type,attr"`
	Name string `xml:"name,attr"`
	Enum string `xml:"enum,attr"`
	Text string `xml:",chardata"`
}

// loadDialectDir parses every *.xml file directly under dir (no recursion)
// plus anything pulled in transitively via <include>, merging enums and
// messages with later files' definitions winning on name/id collision -
// mirroring dialect.Dialect.Merge's last-writer-wins policy one layer up.
func loadDialectDir(dir string) (*xmlDialect, error) {
	visited := make(map[string]bool)
	merged := &xmlDialect{}
	var load func(path string) error
	load = func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if visited[abs] {
			return nil // cycle guard: already processed
		}
		visited[abs] = true

		d, err := parseFile(abs)
		if err != nil {
			return err
		}
		for _, inc := range d.Includes {
			incPath := inc
			if !filepath.IsAbs(incPath) {
				incPath = filepath.Join(filepath.Dir(abs), inc)
			}
			if err := load(incPath); err != nil {
				return fmt.Errorf("include %q: %w", inc, err)
			}
		}
		mergeXMLDialect(merged, d)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading definitions dir: %w", err)
	}
	found := false
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".xml" {
			continue
		}
		found = true
		if err := load(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("no .xml definitions found in %s", dir)
	}
	return merged, nil
}

func parseFile(path string) (*xmlDialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var d xmlDialect
	if err := xml.NewDecoder(f).Decode(&d); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range d.Messages {
		if err := d.Messages[i].resolveFields(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &d, nil
}

// mergeXMLDialect folds src into dst, later definitions overwriting earlier
// ones with the same enum name or the same message id.
func mergeXMLDialect(dst, src *xmlDialect) {
	enumIdx := map[string]int{}
	for i, e := range dst.Enums {
		enumIdx[e.Name] = i
	}
	for _, e := range src.Enums {
		if i, ok := enumIdx[e.Name]; ok {
			dst.Enums[i] = e
		} else {
			enumIdx[e.Name] = len(dst.Enums)
			dst.Enums = append(dst.Enums, e)
		}
	}
	msgIdx := map[uint32]int{}
	for i, m := range dst.Messages {
		msgIdx[m.ID] = i
	}
	for _, m := range src.Messages {
		if i, ok := msgIdx[m.ID]; ok {
			dst.Messages[i] = m
		} else {
			msgIdx[m.ID] = len(dst.Messages)
			dst.Messages = append(dst.Messages, m)
		}
	}
}
