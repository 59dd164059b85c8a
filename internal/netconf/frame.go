package netconf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// endOfMessage is the base:1.0 framing delimiter.
const endOfMessage = "]]>]]>"

const baseCapability = "urn:ietf:params:netconf:base:1.0"

// helloMessage is sent once at session start to advertise capabilities.
func helloMessage() string {
	doc := etree.NewDocument()
	hello := doc.CreateElement("hello")
	hello.CreateAttr("xmlns", "urn:ietf:params:xml:ns:netconf:base:1.0")
	caps := hello.CreateElement("capabilities")
	caps.CreateElement("capability").SetText(baseCapability)
	out, _ := doc.WriteToString()
	return out
}

// getConfigRequest builds a <get-config> RPC against the running datastore.
// A non-empty filter is embedded as a subtree filter; it must be well-formed
// XML with a single root element.
func getConfigRequest(messageID uint64, filter string) (string, error) {
	doc := etree.NewDocument()
	rpc := doc.CreateElement("rpc")
	rpc.CreateAttr("xmlns", "urn:ietf:params:xml:ns:netconf:base:1.0")
	rpc.CreateAttr("message-id", fmt.Sprintf("%d", messageID))

	getConfig := rpc.CreateElement("get-config")
	getConfig.CreateElement("source").CreateElement("running")

	if filter != "" {
		filterDoc := etree.NewDocument()
		if err := filterDoc.ReadFromString(filter); err != nil {
			return "", fmt.Errorf("failed to parse subtree filter: %w", err)
		}
		if filterDoc.Root() == nil {
			return "", fmt.Errorf("subtree filter has no root element")
		}
		filterElem := getConfig.CreateElement("filter")
		filterElem.CreateAttr("type", "subtree")
		filterElem.AddChild(filterDoc.Root().Copy())
	}

	return doc.WriteToString()
}

// parseGetConfigReply extracts the <data> payload from an rpc-reply. An
// rpc-error in the reply is surfaced as an error carrying the device's
// error-message text.
func parseGetConfigReply(reply string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(reply); err != nil {
		return "", fmt.Errorf("failed to parse rpc-reply: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "rpc-reply" {
		return "", fmt.Errorf("unexpected reply document")
	}

	if rpcErr := root.FindElement("rpc-error"); rpcErr != nil {
		msg := "unknown rpc-error"
		if m := rpcErr.FindElement("error-message"); m != nil {
			msg = strings.TrimSpace(m.Text())
		}
		return "", fmt.Errorf("device returned rpc-error: %s", msg)
	}

	data := root.FindElement("data")
	if data == nil {
		return "", fmt.Errorf("rpc-reply carries no data element")
	}

	var sb strings.Builder
	for _, child := range data.ChildElements() {
		childDoc := etree.NewDocument()
		childDoc.SetRoot(child.Copy())
		out, err := childDoc.WriteToString()
		if err != nil {
			return "", fmt.Errorf("failed to serialize config data: %w", err)
		}
		sb.WriteString(out)
	}
	return sb.String(), nil
}

// writeMessage frames and sends one NETCONF message.
func writeMessage(w io.Writer, msg string) error {
	if _, err := io.WriteString(w, msg+"\n"+endOfMessage+"\n"); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// readMessage reads one framed message, consuming the delimiter.
func readMessage(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}
		sb.WriteByte(b)
		if b == '>' && strings.HasSuffix(sb.String(), endOfMessage) {
			msg := sb.String()
			return strings.TrimSpace(msg[:len(msg)-len(endOfMessage)]), nil
		}
	}
}
