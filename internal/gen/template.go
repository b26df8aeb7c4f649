package gen

import "text/template"

var fileTmpl = template.Must(template.New("bindings").Parse(`// Code generated by typewire gen; schema version {{.Version}}. DO NOT EDIT.

package {{.Package}}

import (
	"context"

	"github.com/typewire-dev/typewire/pkg/peer"
	"github.com/typewire-dev/typewire/pkg/protocol"
)

// Wire IDs.
const (
{{- range .Types}}
	{{.Name}}ID protocol.MessageID = {{.ID}}
{{- end}}
)
{{range .Types}}
// {{.Name}} {{.Doc}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.GoName}} {{.GoType}}
{{- end}}
}

// WireID returns the {{.Name}} wire tag.
func (*{{.Name}}) WireID() protocol.MessageID { return {{.Name}}ID }

// AppendBinary encodes {{.Name}} with the native binary codec.
func (m *{{.Name}}) AppendBinary(e *protocol.Encoder) {
{{- range .Fields}}
	{{.Write}}
{{- end}}
}

// ParseBinary decodes {{.Name}} with the native binary codec.
func (m *{{.Name}}) ParseBinary(d *protocol.Decoder) error {
{{- range .Fields}}
	{{.Read}}
{{- end}}
	return nil
}
{{end}}
// NewProtocol builds and freezes the {{.Package}} registry.
func NewProtocol() *protocol.Protocol {
	p := protocol.New(
		protocol.WithVersion({{printf "%q" .Version}}),
{{- if .Strict}}
		protocol.WithUnknownPolicy(protocol.UnknownError),
{{- end}}
	)
{{- range .Entries}}
	p.MustRegister(protocol.Entry{
		ID:      {{.Name}}ID,
		Message: func() protocol.Message { return new({{.Name}}) },
		Responses: []func() protocol.Response{
{{- range .Factories}}
			{{.}},
{{- end}}
		},
{{- if .Retired}}
		Retired: true,
{{- end}}
	})
{{- end}}
	p.Freeze()
	return p
}

// Client is the typed sending surface over the {{.Package}} registry.
type Client struct {
	sender *peer.Sender
{{- range .Callers}}
{{- if not .Multi}}
	{{.FieldName}} *peer.Caller[{{.MsgType}}, {{.RespType}}]
{{- end}}
{{- end}}
}

// NewClient binds every sendable message against s, surfacing registry
// drift here rather than at the first call.
func NewClient(s *peer.Sender) (*Client, error) {
	c := &Client{sender: s}
{{- range .Callers}}
{{- if not .Multi}}
	{{.FieldName}}, err := peer.NewCaller[{{.MsgType}}, {{.RespType}}](s)
	if err != nil {
		return nil, err
	}
	c.{{.FieldName}} = {{.FieldName}}
{{- end}}
{{- end}}
	return c, nil
}
{{range .Callers}}
{{- if .Multi}}
// {{.Method}} sends a {{.Method}} and returns one of its declared responses.
func (c *Client) {{.Method}}(ctx context.Context{{if .Params}}, {{.Params}}{{end}}) (protocol.Response, error) {
	return c.sender.Send(ctx, &{{.Method}}{ {{.Args}} })
}
{{- else}}
// {{.Method}} sends a {{.Method}} and returns its typed response.
func (c *Client) {{.Method}}(ctx context.Context{{if .Params}}, {{.Params}}{{end}}) ({{.RespType}}, error) {
	return c.{{.FieldName}}.Call(ctx, &{{.Method}}{ {{.Args}} })
}
{{- end}}
{{end}}
{{- range .Handlers}}
{{- if .Multi}}
// {{.Name}} wires a typed {{.MsgName}} handler on r.
func {{.Name}}(r *peer.Receiver, fn func(ctx context.Context, msg {{.MsgType}}) (protocol.Response, error)) error {
	return r.Handle({{.MsgName}}ID, func(ctx context.Context, msg protocol.Message) (protocol.Response, error) {
		return fn(ctx, msg.({{.MsgType}}))
	})
}
{{- else}}
// {{.Name}} wires a typed {{.MsgName}} handler on r.
func {{.Name}}(r *peer.Receiver, fn func(ctx context.Context, msg {{.MsgType}}) ({{.RespType}}, error)) error {
	return peer.Handle(r, fn)
}
{{- end}}
{{end}}`))
