package l1

import (
	"fmt"
	"strings"
)

// Disassemble renders a chunk as human-readable text, one instruction per
// line, with pool references resolved inline.
func Disassemble(c *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", c.Name)
	fmt.Fprintf(&b, "args=%d locals=%d outers=%d\n", c.NumArgs(), c.NumLocals, c.NumOuters)

	instructions, err := Decode(c.Code)
	if err != nil {
		fmt.Fprintf(&b, "<decode error: %v>\n", err)
		return b.String()
	}

	for _, ins := range instructions {
		fmt.Fprintf(&b, "%04d  %-14s", ins.Offset, ins.Op)
		switch ins.Op {
		case OpPushLiteral:
			if idx := ins.Operands[0]; idx < len(c.Literals) {
				fmt.Fprintf(&b, " %d (%s)", idx, c.Literals[idx])
			} else {
				fmt.Fprintf(&b, " %d (!)", idx)
			}
		case OpCall:
			bundle := "?"
			if idx := ins.Operands[0]; idx < len(c.Bundles) {
				bundle = c.Bundles[idx]
			}
			fmt.Fprintf(&b, " %s argc=%d", bundle, ins.Operands[1])
		case OpClose:
			fmt.Fprintf(&b, " fn=%d captures=%d", ins.Operands[0], ins.Operands[1])
		default:
			for _, o := range ins.Operands {
				fmt.Fprintf(&b, " %d", o)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
