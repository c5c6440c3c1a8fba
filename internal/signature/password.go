package signature

import "github.com/valyala/bytebufferpool"

const passwordSeparator = '_'

// BuildPassword joins the parts with underscores. The order is fixed:
// client id, timestamp, then any extra material.
func BuildPassword(clientID, timestamp string, extra ...string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteString(clientID)
	buf.WriteByte(passwordSeparator)
	buf.WriteString(timestamp)
	for _, s := range extra {
		buf.WriteByte(passwordSeparator)
		buf.WriteString(s)
	}
	return buf.String()
}
