// Package gen emits Go bindings from a typewire schema: payload structs
// with binary codec methods, a frozen registry constructor, a typed client
// over peer.Caller, and typed handler-wiring helpers. The output layers type
// narrowing over pkg/peer; it adds no runtime behavior of its own.
package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"unicode"

	"github.com/typewire-dev/typewire/internal/schema"
)

// Generate renders gofmt-formatted Go source for s.
func Generate(s *schema.Schema) ([]byte, error) {
	data, err := build(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("gen: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gen: format output: %w", err)
	}
	return src, nil
}

type fieldData struct {
	GoName string
	GoType string
	Write  string // encoder statement
	Read   string // decoder block assigning the field
}

type typeData struct {
	Name   string
	Doc    string
	ID     uint32
	Fields []fieldData
}

type entryData struct {
	Name      string
	Retired   bool
	Factories []string // response factory expressions
}

type callerData struct {
	Method    string
	FieldName string   // client struct field, "" for multi-response messages
	MsgType   string   // "*Ping"
	RespType  string   // "*Pong" or "protocol.Response"
	Params    string   // "nonce int64, tag string"
	Args      string   // "Nonce: nonce, Tag: tag"
	Multi     bool     // more than one declared response
}

type handlerData struct {
	Name     string // "HandlePing"
	MsgName  string
	MsgType  string
	RespType string
	Multi    bool
}

type fileData struct {
	Version  string
	Package  string
	Strict   bool
	Types    []typeData
	Entries  []entryData
	Callers  []callerData
	Handlers []handlerData
	HasMulti bool
}

func build(s *schema.Schema) (*fileData, error) {
	f := &fileData{
		Version: s.Version,
		Package: s.Package,
		Strict:  s.Strict,
	}

	for _, r := range s.Responses {
		t, err := buildType(r.Name, r.ID, r.Fields, "is a response payload.")
		if err != nil {
			return nil, err
		}
		f.Types = append(f.Types, t)
	}

	for _, m := range s.Messages {
		t, err := buildType(m.Name, m.ID, m.Fields, "is a request message.")
		if err != nil {
			return nil, err
		}
		f.Types = append(f.Types, t)

		entry := entryData{Name: m.Name, Retired: m.Retired}
		for _, ref := range m.Responses {
			entry.Factories = append(entry.Factories, respFactory(ref))
		}
		f.Entries = append(f.Entries, entry)

		multi := len(m.Responses) > 1
		respType := "protocol.Response"
		if !multi {
			respType = "*" + respTypeName(m.Responses[0])
		}

		if !m.Retired {
			params, args := paramList(m.Fields)
			f.Callers = append(f.Callers, callerData{
				Method:    m.Name,
				FieldName: lowerCamel(m.Name),
				MsgType:   "*" + m.Name,
				RespType:  respType,
				Params:    params,
				Args:      args,
				Multi:     multi,
			})
			if multi {
				f.HasMulti = true
			}
		}

		f.Handlers = append(f.Handlers, handlerData{
			Name:     "Handle" + m.Name,
			MsgName:  m.Name,
			MsgType:  "*" + m.Name,
			RespType: respType,
			Multi:    multi,
		})
	}

	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("gen: schema %s declares no messages", s.Version)
	}
	return f, nil
}

func buildType(name string, id uint32, fields []schema.Field, doc string) (typeData, error) {
	t := typeData{Name: name, ID: id, Doc: doc}
	for _, fld := range fields {
		fd, err := buildField(fld)
		if err != nil {
			return t, fmt.Errorf("gen: %s.%s: %w", name, fld.Name, err)
		}
		t.Fields = append(t.Fields, fd)
	}
	return t, nil
}

func buildField(f schema.Field) (fieldData, error) {
	goName := pascal(f.Name)
	fd := fieldData{GoName: goName}
	recv := "m." + goName
	switch f.Type {
	case "bool":
		fd.GoType = "bool"
		fd.Write = fmt.Sprintf("e.WriteBool(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadBool()")
	case "int32":
		fd.GoType = "int32"
		fd.Write = fmt.Sprintf("e.WriteInt32(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadInt32()")
	case "int64":
		fd.GoType = "int64"
		fd.Write = fmt.Sprintf("e.WriteSvarint(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadSvarint()")
	case "uint32":
		fd.GoType = "uint32"
		fd.Write = fmt.Sprintf("e.WriteUint32(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadUint32()")
	case "uint64":
		fd.GoType = "uint64"
		fd.Write = fmt.Sprintf("e.WriteUvarint(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadUvarint()")
	case "float64":
		fd.GoType = "float64"
		fd.Write = fmt.Sprintf("e.WriteFloat64(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadFloat64()")
	case "string":
		fd.GoType = "string"
		fd.Write = fmt.Sprintf("e.WriteString(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadString()")
	case "bytes":
		fd.GoType = "[]byte"
		fd.Write = fmt.Sprintf("e.WriteLenBytes(%s)", recv)
		fd.Read = readBlock(recv, "d.ReadLenBytes()")
	default:
		return fd, fmt.Errorf("unsupported field type %q", f.Type)
	}
	return fd, nil
}

func readBlock(target, call string) string {
	return fmt.Sprintf(`{
	v, err := %s
	if err != nil {
		return err
	}
	%s = v
}`, call, target)
}

// respTypeName maps a response reference to the Go type name, resolving the
// system names.
func respTypeName(ref string) string {
	switch ref {
	case "Empty":
		return "protocol.EmptyResponse"
	case "Error":
		return "protocol.ErrorResponse"
	case "String":
		return "protocol.StringResponse"
	case "Bool":
		return "protocol.BoolResponse"
	default:
		return ref
	}
}

func respFactory(ref string) string {
	return fmt.Sprintf("func() protocol.Response { return new(%s) }", respTypeName(ref))
}

func paramList(fields []schema.Field) (params, args string) {
	var ps, as []string
	for _, f := range fields {
		goType := "[]byte"
		switch f.Type {
		case "bool", "int32", "int64", "uint32", "uint64", "float64", "string":
			goType = f.Type
		}
		ps = append(ps, fmt.Sprintf("%s %s", lowerCamel(f.Name), goType))
		as = append(as, fmt.Sprintf("%s: %s", pascal(f.Name), lowerCamel(f.Name)))
	}
	return strings.Join(ps, ", "), strings.Join(as, ", ")
}

// pascal converts snake_case or lowerCamel to PascalCase.
func pascal(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func lowerCamel(s string) string {
	p := pascal(s)
	if p == "" {
		return p
	}
	return strings.ToLower(p[:1]) + p[1:]
}
