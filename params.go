package iws

import (
	"fmt"
	"strings"
)

// Param is one named script flag. It holds either a boolean presence flag
// or a string value.
type Param struct {
	Name   string
	Value  string
	Flag   bool
	isBool bool
}

// BoolParam returns a presence flag: -name when on, nothing otherwise
func BoolParam(name string, on bool) Param {
	return Param{Name: name, Flag: on, isBool: true}
}

// StringParam returns a value flag: -name 'value' unless value is blank
func StringParam(name, value string) Param {
	return Param{Name: name, Value: value}
}

// IsBool reports whether p is a presence flag
func (p Param) IsBool() bool {
	return p.isBool
}

// fragment renders p, returning "" for omitted parameters
func (p Param) fragment() (string, error) {
	if p.isBool {
		if p.Flag {
			return "-" + p.Name, nil
		}
		return "", nil
	}
	value := strings.TrimSpace(p.Value)
	if value == "" {
		return "", nil
	}
	// Values are passed between single quotes without escaping.
	if strings.ContainsRune(value, '\'') {
		return "", ErrUnsafeValue
	}
	return "-" + p.Name + " '" + value + "'", nil
}

// Parameters is an ordered set of script flags. Encoding preserves the
// order in which parameters were added.
type Parameters []Param

// Flag appends a presence flag
func (ps Parameters) Flag(name string, on bool) Parameters {
	return append(ps, BoolParam(name, on))
}

// Value appends a value flag
func (ps Parameters) Value(name, value string) Parameters {
	return append(ps, StringParam(name, value))
}

// Encode renders the parameters as a single argument string. False flags
// and blank values are omitted; the rest are joined by single spaces.
func (ps Parameters) Encode() (string, error) {
	fragments := make([]string, 0, len(ps))
	for _, p := range ps {
		frag, err := p.fragment()
		if err != nil {
			return "", fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		if frag != "" {
			fragments = append(fragments, frag)
		}
	}
	return strings.Join(fragments, " "), nil
}

func serverParams(server string) Parameters {
	return Parameters{}.Value("server", server)
}

func serviceParams(server, service string) Parameters {
	return Parameters{}.Value("server", server).Value("service", service)
}
