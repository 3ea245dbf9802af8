package main

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kstaniek/mavgw/internal/crc"
)

// fieldType describes one MAVLink scalar type as mavgen understands it: its
// Go equivalent, wire size, and (for reader/writer calls) the wire.Reader /
// wire.Writer method suffix.
type fieldType struct {
	GoType   string
	Size     int // bytes of one scalar element
	WireCall string
}

var scalarTypes = map[string]fieldType{
	"uint8_t":                 {"uint8", 1, "U8"},
	"int8_t":                  {"int8", 1, "I8"},
	"char":                    {"byte", 1, "U8"},
	"uint16_t":                {"uint16", 2, "U16"},
	"int16_t":                 {"int16", 2, "I16"},
	"uint32_t":                {"uint32", 4, "U32"},
	"int32_t":                 {"int32", 4, "I32"},
	"uint64_t":                {"uint64", 8, "U64"},
	"int64_t":                 {"int64", 8, "I64"},
	"float":                   {"float32", 4, "F32"},
	"double":                  {"float64", 8, "F64"},
	"uint8_t_mavlink_version": {"uint8", 1, "U8"}, // pseudo-type for the mavlink_version field
}

var arrayTypeRe = regexp.MustCompile(`^([a-z0-9_]+)\[(\d+)\]$`)

// resolvedField is one message field after type resolution: its wire size,
// Go field name, and array-ness. Exported so it's reachable from
// text/template, which only sees exported struct fields.
type resolvedField struct {
	xmlField
	GoName   string
	Scalar   fieldType
	ArrayLen int // 0 for non-arrays
	Size     int // total wire bytes (ArrayLen*Scalar.Size for arrays)
}

func resolveField(f xmlField) (resolvedField, error) {
	rf := resolvedField{xmlField: f, GoName: exportedName(f.Name)}
	if m := arrayTypeRe.FindStringSubmatch(f.Type); m != nil {
		base, ok := scalarTypes[m[1]]
		if !ok {
			return rf, fmt.Errorf("unknown array element type %q", f.Type)
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return rf, fmt.Errorf("bad array length in %q: %w", f.Type, err)
		}
		rf.Scalar = base
		rf.ArrayLen = n
		rf.Size = base.Size * n
		return rf, nil
	}
	base, ok := scalarTypes[f.Type]
	if !ok {
		return rf, fmt.Errorf("unknown field type %q", f.Type)
	}
	rf.Scalar = base
	rf.Size = base.Size
	return rf, nil
}

// resolvedMessage is a fully resolved message: fields in wire order
// (base fields sorted by descending element size, extension fields
// appended afterwards unsorted), plus the derived lengths and crc_extra.
type resolvedMessage struct {
	xmlMessage
	GoName    string
	ConstName string
	Fields    []resolvedField // base fields, sorted
	ExtFields []resolvedField // extension fields, declaration order
	WireLen   int             // sum of base field sizes (v1 and v2 minimum)
	ExtLen    int             // WireLen + sum of extension field sizes (v2 only)
	CrcExtra  byte
}

func resolveMessage(m xmlMessage) (*resolvedMessage, error) {
	rm := &resolvedMessage{
		xmlMessage: m,
		GoName:     exportedName(strings.ToLower(m.Name)),
		ConstName:  exportedName(strings.ToLower(m.Name)) + "ID",
	}
	for _, f := range m.Fields {
		rf, err := resolveField(f)
		if err != nil {
			return nil, fmt.Errorf("message %s field %s: %w", m.Name, f.Name, err)
		}
		rm.Fields = append(rm.Fields, rf)
		rm.WireLen += rf.Size
	}
	// MAVLink wire order: descending element size, stable on ties (the
	// XML declaration order is itself already alphabetically-adjacent per
	// field group in well-formed dialects, so a stable sort preserves it).
	sort.SliceStable(rm.Fields, func(i, j int) bool {
		return rm.Fields[i].Scalar.Size > rm.Fields[j].Scalar.Size
	})

	rm.ExtLen = rm.WireLen
	for _, f := range m.ExtFields {
		rf, err := resolveField(f)
		if err != nil {
			return nil, fmt.Errorf("message %s extension field %s: %w", m.Name, f.Name, err)
		}
		rm.ExtFields = append(rm.ExtFields, rf)
		rm.ExtLen += rf.Size
	}

	rm.CrcExtra = crcExtraByte(m)
	return rm, nil
}

// crcExtraByte reproduces the reference crc_extra computation: the
// message name, a space, then each base field's type name and field name
// (arrays include their length), space-separated, fed through crc.ExtraByte.
// Extension fields never participate.
func crcExtraByte(m xmlMessage) byte {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteByte(' ')
	for _, f := range m.Fields {
		sb.WriteString(crcTypeName(f.Type))
		sb.WriteByte(' ')
		sb.WriteString(f.Name)
		sb.WriteByte(' ')
		if arr := arrayTypeRe.FindStringSubmatch(f.Type); arr != nil {
			n, _ := strconv.Atoi(arr[2])
			sb.WriteByte(byte(n))
		}
	}
	return crc.ExtraByte([]byte(sb.String()))
}

// crcTypeName returns the C type name as it appears in the crc_extra
// signature. Every type feeds its full name in unchanged, except the
// uint8_t_mavlink_version pseudo-type, whose "_mavlink_version" suffix is
// stripped back down to the real C type "uint8_t" it stands in for.
func crcTypeName(t string) string {
	if m := arrayTypeRe.FindStringSubmatch(t); m != nil {
		t = m[1]
	}
	return strings.TrimSuffix(t, "_mavlink_version")
}

var exportedNameRe = regexp.MustCompile(`[0-9A-Za-z]+`)

// exportedName converts a snake_case MAVLink identifier into an exported Go
// identifier, e.g. "onboard_control_sensors_present" ->
// "OnboardControlSensorsPresent".
func exportedName(s string) string {
	parts := exportedNameRe.FindAllString(s, -1)
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(strings.ToLower(p[1:]))
	}
	return sb.String()
}
