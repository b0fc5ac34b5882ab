package l2

// removeDeadCode prunes instructions that have no side effect, do not end a
// block, and write only registers nothing live ever reads. Removing one
// instruction can strand the reads of another, so the liveness set is
// recomputed to a fixed point. Label positions are remapped to the surviving
// indices afterwards.
func removeDeadCode(instructions []*Instruction, labels []*Label) []*Instruction {
	kept := make([]bool, len(instructions))
	for i := range kept {
		kept[i] = true
	}

	for {
		read := make(map[Register]struct{})
		for i, ins := range instructions {
			if !kept[i] {
				continue
			}
			for _, r := range ins.ReadRegisters() {
				read[r] = struct{}{}
			}
		}

		changed := false
		for i, ins := range instructions {
			if !kept[i] || ins.HasSideEffect() || ins.EndsBlock() {
				continue
			}
			live := false
			for _, w := range ins.WriteRegisters() {
				if _, ok := read[w]; ok {
					live = true
					break
				}
			}
			if !live {
				kept[i] = false
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// newIndex[i] is the post-elimination index of old position i; one extra
	// slot maps the end-of-stream position for labels placed after the last
	// instruction.
	newIndex := make([]int, len(instructions)+1)
	n := 0
	for i := range instructions {
		newIndex[i] = n
		if kept[i] {
			n++
		}
	}
	newIndex[len(instructions)] = n

	out := make([]*Instruction, 0, n)
	for i, ins := range instructions {
		if kept[i] {
			out = append(out, ins)
		}
	}
	for _, l := range labels {
		if l.placed {
			l.pc = newIndex[l.pc]
		}
	}
	return out
}
