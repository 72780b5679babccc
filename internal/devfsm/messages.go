package devfsm

import (
	"encoding/xml"
	"fmt"

	"github.com/meridian-net/meridian/internal/schema"
)

// Base NETCONF namespaces, grounded on the reference NETCONF-over-SSH
// driver's constant block (other_examples nano-southbound netconf driver).
const (
	baseNS = "urn:ietf:params:xml:ns:netconf:base:1.0"
	monNS  = "urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"

	capBase10 = "urn:ietf:params:netconf:base:1.0"
	capBase11 = "urn:ietf:params:netconf:base:1.1"
)

// ourCapabilities is what the controller advertises in its own hello.
var ourCapabilities = []string{capBase10, capBase11}

func buildHello() []byte {
	var b []byte
	b = append(b, fmt.Sprintf(`<hello xmlns=%q><capabilities>`, baseNS)...)
	for _, c := range ourCapabilities {
		b = append(b, fmt.Sprintf(`<capability>%s</capability>`, c)...)
	}
	b = append(b, `</capabilities></hello>`...)
	return b
}

type helloMsg struct {
	XMLName      xml.Name `xml:"hello"`
	SessionID    string   `xml:"session-id"`
	Capabilities struct {
		Capability []string `xml:"capability"`
	} `xml:"capabilities"`
}

func parseHello(data []byte) ([]string, error) {
	var h helloMsg
	if err := xml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("devfsm: parsing hello: %w", err)
	}
	return h.Capabilities.Capability, nil
}

func buildRPC(msgID uint64, body string) []byte {
	return []byte(fmt.Sprintf(`<rpc message-id="%d" xmlns=%q>%s</rpc>`, msgID, baseNS, body))
}

// buildGetSchemaList requests the device's advertised module catalog via a
// subtree filter on ietf-netconf-monitoring's schema list (spec.md §4.3
// SCHEMA_LIST: "send 'list schemas' request").
func buildGetSchemaList() string {
	return fmt.Sprintf(`<get><filter type="subtree"><netconf-state xmlns=%q><schemas/></netconf-state></filter></get>`, monNS)
}

func buildGetSchema(ref schema.ModuleRef) string {
	if ref.Revision == "" {
		return fmt.Sprintf(`<get-schema xmlns=%q><identifier>%s</identifier><format>yang</format></get-schema>`, monNS, ref.Name)
	}
	return fmt.Sprintf(`<get-schema xmlns=%q><identifier>%s</identifier><version>%s</version><format>yang</format></get-schema>`, monNS, ref.Name, ref.Revision)
}

func buildGetConfig(source string) string {
	return fmt.Sprintf(`<get-config><source><%s/></source></get-config>`, source)
}

func buildValidate(source string) string {
	return fmt.Sprintf(`<validate><source><%s/></source></validate>`, source)
}

func buildCommit() string {
	return `<commit/>`
}

func buildDiscardChanges() string {
	return `<discard-changes/>`
}

type rpcError struct {
	Type    string `xml:"error-type"`
	Tag     string `xml:"error-tag"`
	Message string `xml:"error-message"`
}

func (e rpcError) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Type, e.Tag, e.Message)
}

type rpcReply struct {
	XMLName   xml.Name   `xml:"rpc-reply"`
	MessageID string     `xml:"message-id,attr"`
	Errors    []rpcError `xml:"rpc-error"`
	OK        *struct{}  `xml:"ok"`
}

func parseRPCReply(data []byte) (*rpcReply, error) {
	var r rpcReply
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("devfsm: parsing rpc-reply: %w", err)
	}
	return &r, nil
}

func (r *rpcReply) ok() bool {
	return len(r.Errors) == 0
}

func (r *rpcReply) errorString() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].String()
}

// schemaListRPCReply is a list-schemas rpc-reply, down to the monitoring
// schema list nested in its <data>.
type schemaListRPCReply struct {
	XMLName xml.Name `xml:"rpc-reply"`
	Data    struct {
		NetconfState struct {
			Schemas struct {
				Schema []struct {
					Identifier string   `xml:"identifier"`
					Version    string   `xml:"version"`
					Namespace  string   `xml:"namespace"`
					Location   []string `xml:"location"`
				} `xml:"schema"`
			} `xml:"schemas"`
		} `xml:"netconf-state"`
	} `xml:"data"`
}

// parseSchemaCatalogReply decodes a list-schemas rpc-reply into catalog
// entries. A module with no "NETCONF" location entry is marked not locally
// retrievable (spec.md §4.3 edge rule: "a module with no location value of
// NETCONF is skipped").
func parseSchemaCatalogReply(raw []byte) ([]schema.CatalogEntry, error) {
	var r schemaListRPCReply
	if err := xml.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("devfsm: parsing schema catalog: %w", err)
	}

	var out []schema.CatalogEntry
	for _, s := range r.Data.NetconfState.Schemas.Schema {
		retrievable := false
		for _, loc := range s.Location {
			if loc == "NETCONF" {
				retrievable = true
				break
			}
		}
		out = append(out, schema.CatalogEntry{
			ModuleRef:        schema.ModuleRef{Name: s.Identifier, Revision: s.Version},
			Namespace:        s.Namespace,
			LocallyAvailable: retrievable,
		})
	}
	return out, nil
}

// getSchemaReply extracts a get-schema reply's module text. encoding/xml
// unescapes any entity-escaped characters as it decodes the <data> chardata
// (spec.md §4.3: "module text arrives as escaped character data and must be
// decoded").
type getSchemaReply struct {
	XMLName xml.Name `xml:"rpc-reply"`
	Data    string   `xml:"data"`
}

func parseGetSchemaReply(data []byte) (string, error) {
	var r getSchemaReply
	if err := xml.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("devfsm: parsing get-schema reply: %w", err)
	}
	return r.Data, nil
}

// getConfigReply extracts a get-config reply's <data> inner XML, which is
// structured configuration (not chardata) and must be parsed with
// diff.FromXML rather than treated as a string.
type getConfigReply struct {
	XMLName xml.Name `xml:"rpc-reply"`
	Data    struct {
		Inner string `xml:",innerxml"`
	} `xml:"data"`
}

func parseGetConfigReply(data []byte) (string, error) {
	var r getConfigReply
	if err := xml.Unmarshal(data, &r); err != nil {
		return "", fmt.Errorf("devfsm: parsing get-config reply: %w", err)
	}
	return r.Data.Inner, nil
}
