package gen

import (
	"strings"
	"testing"

	"github.com/typewire-dev/typewire/internal/schema"
)

const testSchema = `
version = "billing/1"
package = "billing"
strict = true

[[response]]
name = "Invoice"
id = 100
fields = [
    { name = "total", type = "int64" },
    { name = "currency", type = "string" },
]

[[message]]
name = "GetInvoice"
id = 1
responses = ["Invoice"]
fields = [
    { name = "invoice_id", type = "uint64" },
]

[[message]]
name = "SyncLedger"
id = 2
responses = ["Invoice", "Empty"]

[[message]]
name = "VoidInvoice"
id = 3
retired = true
responses = ["Empty"]
`

func generate(t *testing.T, src string) string {
	t.Helper()
	s, err := schema.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	out, err := Generate(s)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	return string(out)
}

func TestGenerateBindings(t *testing.T) {
	out := generate(t, testSchema)

	// Generate gofmt-formats its output, so reaching here already proves
	// the emitted source parses.
	want := []string{
		"// Code generated by typewire gen; schema version billing/1. DO NOT EDIT.",
		"package billing",
		"GetInvoiceID protocol.MessageID = 1",
		"InvoiceID protocol.MessageID = 100",
		"type Invoice struct {",
		"Total    int64",
		"Currency string",
		"func (*GetInvoice) WireID() protocol.MessageID { return GetInvoiceID }",
		"e.WriteUvarint(m.InvoiceId)",
		"d.ReadSvarint()",
		"func NewProtocol() *protocol.Protocol {",
		`protocol.WithVersion("billing/1")`,
		"protocol.WithUnknownPolicy(protocol.UnknownError)",
		"Retired: true,",
		"p.Freeze()",
		"func NewClient(s *peer.Sender) (*Client, error) {",
		"peer.NewCaller[*GetInvoice, *Invoice](s)",
		"func (c *Client) GetInvoice(ctx context.Context, invoiceId uint64) (*Invoice, error) {",
		"func (c *Client) SyncLedger(ctx context.Context) (protocol.Response, error) {",
		"func HandleGetInvoice(r *peer.Receiver, fn func(ctx context.Context, msg *GetInvoice) (*Invoice, error)) error {",
		"func HandleVoidInvoice(",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("generated output missing %q", w)
		}
	}
}

func TestGenerateRetiredHasNoClientMethod(t *testing.T) {
	out := generate(t, testSchema)
	if strings.Contains(out, "func (c *Client) VoidInvoice") {
		t.Error("generated output has a client method for a retired message")
	}
	if !strings.Contains(out, "func HandleVoidInvoice") {
		t.Error("generated output missing the handler helper for a retired message")
	}
}

func TestGenerateStrictPolicyOmittedByDefault(t *testing.T) {
	out := generate(t, `
version = "v1"
package = "p"
[[message]]
name = "Nudge"
id = 1
responses = ["Empty"]
`)
	if strings.Contains(out, "UnknownError") {
		t.Error("non-strict schema emitted the strict unknown-ID policy")
	}
	if !strings.Contains(out, "peer.NewCaller[*Nudge, *protocol.EmptyResponse](s)") {
		t.Error("generated output missing the Empty-typed caller")
	}
}

func TestGenerateRejectsEmptySchema(t *testing.T) {
	s := &schema.Schema{Version: "v1", Package: "p"}
	if _, err := Generate(s); err == nil {
		t.Error("Generate() of schema with no messages succeeded, want error")
	}
}
