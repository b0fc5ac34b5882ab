package l2

import (
	"fmt"
	"strings"
)

// Disassemble renders the chunk as text, one instruction per line with its
// stream index. Branch operands print label targets as name@index, so the
// output is self-contained.
func Disassemble(c *Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "unit %q (%s)\n", c.Name, c.UnitID)
	fmt.Fprintf(&b, "  args=%d outers=%d registers: boxed=%d int=%d float=%d\n",
		c.NumArgs, c.NumOuters, c.NumBoxed, c.NumInt, c.NumFloat)
	for i, ins := range c.Instructions {
		fmt.Fprintf(&b, "%4d  %s", i, ins)
		if ins.Source >= 0 {
			fmt.Fprintf(&b, "  ; L1 offset %d", ins.Source)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
