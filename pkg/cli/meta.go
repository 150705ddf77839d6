package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fepozopo/dithr/pkg/stdimg"
)

// ParamType is a small enum for parameter types used in metadata.
type ParamType string

const (
	ParamTypeInt     ParamType = "int"
	ParamTypeFloat   ParamType = "float"
	ParamTypePercent ParamType = "percent"
	ParamTypeEnum    ParamType = "enum"
	ParamTypeList    ParamType = "list"
	ParamTypeString  ParamType = "string"
)

// ValidationRule is the machine-friendly form of an ArgSpec that prompts
// validate against before a command runs.
type ValidationRule struct {
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	EnumOptions []string  `json:"enumOptions,omitempty"`
	Example     string    `json:"example,omitempty"`
	Hint        string    `json:"hint,omitempty"`
}

// parsePercentValue parses "30%" or a bare number and returns the numeric string.
func parsePercentValue(s string) (string, error) {
	s = strings.TrimSpace(s)
	raw := strings.TrimSuffix(s, "%")
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return "", fmt.Errorf("invalid percent value: %q", s)
	}
	return raw, nil
}

// GenerateTooltip produces the help text shown before a command's prompts.
func GenerateTooltip(c CommandSpec) string {
	var sb strings.Builder
	if c.Description != "" {
		sb.WriteString(c.Description)
	} else {
		sb.WriteString("No description")
	}
	if len(c.Args) == 0 {
		return sb.String()
	}
	sb.WriteString("\nparameters:\n")
	for _, a := range c.Args {
		req := "optional"
		if a.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s, %s)", a.Name, a.Type, req))
		if a.Description != "" {
			sb.WriteString(": " + a.Description)
		}
		if a.Min != nil && a.Max != nil {
			sb.WriteString(fmt.Sprintf(" [%g..%g]", *a.Min, *a.Max))
		}
		if len(a.Options) > 0 {
			sb.WriteString(" {" + strings.Join(a.Options, ", ") + "}")
		}
		if a.Default != "" {
			sb.WriteString(" (default: " + a.Default + ")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// GenerateValidationRules creates ValidationRule entries from a CommandSpec.
func GenerateValidationRules(c CommandSpec) map[string]ValidationRule {
	rules := make(map[string]ValidationRule, len(c.Args))
	for _, a := range c.Args {
		var t ParamType
		switch strings.ToLower(a.Type) {
		case "int":
			t = ParamTypeInt
		case "float":
			t = ParamTypeFloat
		case "percent":
			t = ParamTypePercent
		case "enum":
			t = ParamTypeEnum
		case "list":
			t = ParamTypeList
		default:
			t = ParamTypeString
		}
		rules[a.Name] = ValidationRule{
			Type:        t,
			Required:    a.Required,
			Min:         a.Min,
			Max:         a.Max,
			EnumOptions: a.Options,
			Example:     a.Default,
			Hint:        a.Description,
		}
	}
	return rules
}

// MetaStore indexes a command registry by name and by key.
type MetaStore struct {
	Commands []CommandSpec
	byName   map[string]CommandSpec
	byKey    map[rune]CommandSpec
}

// NewMetaStore creates a MetaStore from a CommandSpec list.
func NewMetaStore(cmds []CommandSpec) *MetaStore {
	m := &MetaStore{
		Commands: cmds,
		byName:   make(map[string]CommandSpec, len(cmds)),
		byKey:    make(map[rune]CommandSpec, len(cmds)),
	}
	for _, c := range cmds {
		m.byName[c.Name] = c
		if c.Key != 0 {
			m.byKey[c.Key] = c
		}
	}
	return m
}

// Lookup returns the command with the given name.
func (m *MetaStore) Lookup(name string) (CommandSpec, bool) {
	c, ok := m.byName[name]
	return c, ok
}

// ForKey returns the command bound to key.
func (m *MetaStore) ForKey(key rune) (CommandSpec, bool) {
	c, ok := m.byKey[key]
	return c, ok
}

// GetCommandHelp returns both tooltip and validation rules for a command.
func (m *MetaStore) GetCommandHelp(name string) (string, map[string]ValidationRule, error) {
	c, ok := m.byName[name]
	if !ok {
		return "", nil, fmt.Errorf("unknown command: %s", name)
	}
	return GenerateTooltip(c), GenerateValidationRules(c), nil
}

func checkRange(name string, f float64, vr ValidationRule) error {
	if vr.Min != nil && f < *vr.Min {
		return fmt.Errorf("parameter %s: %v < min %v", name, f, *vr.Min)
	}
	if vr.Max != nil && f > *vr.Max {
		return fmt.Errorf("parameter %s: %v > max %v", name, f, *vr.Max)
	}
	return nil
}

// NormalizeArgs validates raw prompt answers for cmdName and returns them in
// canonical form. Blank optional answers are replaced by the argument default.
func NormalizeArgs(store *MetaStore, cmdName string, args []string) ([]string, error) {
	if store == nil {
		return nil, fmt.Errorf("metadata store is nil")
	}
	c, ok := store.byName[cmdName]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", cmdName)
	}
	rules := GenerateValidationRules(c)
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		raw := ""
		if i < len(args) {
			raw = strings.TrimSpace(args[i])
		}
		if raw == "" {
			if a.Required {
				return nil, fmt.Errorf("missing required parameter: %s", a.Name)
			}
			raw = a.Default
			if raw == "" {
				continue
			}
		}
		vr := rules[a.Name]
		switch vr.Type {
		case ParamTypeInt:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: expected integer, got %q", a.Name, raw)
			}
			if err := checkRange(a.Name, float64(v), vr); err != nil {
				return nil, err
			}
			out[i] = strconv.FormatInt(v, 10)
		case ParamTypeFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: expected float, got %q", a.Name, raw)
			}
			if err := checkRange(a.Name, f, vr); err != nil {
				return nil, err
			}
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
		case ParamTypePercent:
			n, err := parsePercentValue(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", a.Name, err)
			}
			f, _ := strconv.ParseFloat(n, 64)
			if err := checkRange(a.Name, f, vr); err != nil {
				return nil, err
			}
			out[i] = strconv.Itoa(int(f + 0.5))
		case ParamTypeEnum:
			found := ""
			for _, opt := range vr.EnumOptions {
				if strings.EqualFold(opt, raw) {
					found = opt
					break
				}
			}
			if found == "" {
				return nil, fmt.Errorf("parameter %s: %q is not one of %s", a.Name, raw, strings.Join(vr.EnumOptions, ", "))
			}
			out[i] = found
		case ParamTypeList:
			pal, err := stdimg.ParsePalette(strings.Split(raw, ","))
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", a.Name, err)
			}
			out[i] = strings.Join(pal.Hex(), ",")
		default:
			out[i] = raw
		}
	}
	return out, nil
}
